// Package secrets implements the RSA password envelope. Clients fetch the
// public key, encrypt the password in the browser and send the base64
// ciphertext; the server decrypts it before binding to the directory.
package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
)

// Codec holds the RSA key pair for the password envelope.
type Codec struct {
	private *rsa.PrivateKey
}

// NewCodec loads a PKCS#8 private key from base64 DER. An empty input
// generates an ephemeral 2048-bit pair, which suits development but makes
// issued envelopes unusable across restarts.
func NewCodec(privateKeyB64 string) (*Codec, error) {
	if privateKeyB64 == "" {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("secrets: generate key: %w", err)
		}
		return &Codec{private: key}, nil
	}

	der, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("secrets: decode private key: %w", err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("secrets: parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("secrets: private key is not RSA")
	}
	return &Codec{private: key}, nil
}

// PublicKeyBase64 returns the PKIX-encoded public key as base64 DER, the
// format browser crypto libraries import directly.
func (c *Codec) PublicKeyBase64() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&c.private.PublicKey)
	if err != nil {
		return "", fmt.Errorf("secrets: marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// Encrypt seals a value for the private key holder. Exposed for the
// developer helper endpoint.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, &c.private.PublicKey, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("secrets: encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a base64 RSA envelope. Input that is not valid base64 or
// not a valid envelope is passed through untouched so plain passwords keep
// working against non-production directories.
func (c *Codec) Decrypt(value string) string {
	ciphertext, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return value
	}
	plaintext, err := rsa.DecryptPKCS1v15(nil, c.private, ciphertext)
	if err != nil {
		return value
	}
	return string(plaintext)
}
