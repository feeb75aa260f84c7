package directory

import "testing"

func TestCleanUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"jdoe", "jdoe"},
		{`CORP\jdoe`, "jdoe"},
		{"corp/jdoe", "jdoe"},
		{"jdoe@corp.example.com", "jdoe"},
		{`CORP\jdoe@corp.example.com`, "jdoe"},
		{"  jdoe  ", "jdoe"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CleanUsername(tc.in); got != tc.want {
			t.Errorf("CleanUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
