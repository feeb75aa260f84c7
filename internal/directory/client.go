// Package directory authenticates credentials against Active Directory and
// reads the identity attributes carried into tokens.
package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Entry is the subset of directory attributes the application uses.
type Entry struct {
	Username   string
	FullName   string
	Email      string
	Department string
	Title      string
	DN         string
}

// Config locates the directory.
type Config struct {
	URL        string
	BaseDN     string
	Domain     string
	SkipVerify bool
}

// Authenticator verifies credentials and returns the matching entry.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Entry, error)
}

// Client is the LDAP implementation of Authenticator.
type Client struct {
	cfg Config
}

// NewClient builds a directory client.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Authenticate binds as the user and reads their entry. The username may
// arrive as a bare account name, DOMAIN\account or account@domain; it is
// normalised to the bare sAMAccountName before the UPN bind.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*Entry, error) {
	account := CleanUsername(username)
	if account == "" || password == "" {
		return nil, fmt.Errorf("directory: empty credentials")
	}

	conn, err := ldap.DialURL(c.cfg.URL, ldap.DialWithTLSConfig(&tls.Config{
		InsecureSkipVerify: c.cfg.SkipVerify,
	}))
	if err != nil {
		return nil, fmt.Errorf("directory: dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}

	upn := fmt.Sprintf("%s@%s", account, c.cfg.Domain)
	if err := conn.Bind(upn, password); err != nil {
		return nil, fmt.Errorf("directory: bind %s: %w", upn, err)
	}

	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, 0, false,
		fmt.Sprintf("(sAMAccountName=%s)", ldap.EscapeFilter(account)),
		[]string{"sAMAccountName", "displayName", "mail", "department", "title", "distinguishedName"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("directory: search %s: %w", account, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("directory: no entry for %s", account)
	}

	entry := res.Entries[0]
	return &Entry{
		Username:   entry.GetAttributeValue("sAMAccountName"),
		FullName:   entry.GetAttributeValue("displayName"),
		Email:      entry.GetAttributeValue("mail"),
		Department: entry.GetAttributeValue("department"),
		Title:      entry.GetAttributeValue("title"),
		DN:         entry.GetAttributeValue("distinguishedName"),
	}, nil
}

// CleanUsername strips a DOMAIN\ or domain/ prefix and an @domain suffix,
// leaving the bare account name.
func CleanUsername(username string) string {
	username = strings.TrimSpace(username)
	if i := strings.LastIndexAny(username, `\/`); i >= 0 {
		username = username[i+1:]
	}
	if i := strings.Index(username, "@"); i >= 0 {
		username = username[:i]
	}
	return username
}
