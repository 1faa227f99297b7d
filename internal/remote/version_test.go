package remote

import "testing"

func TestEncodeClientVersion(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1002003"},
		{"0.0.1", "1"},
		{"2.1.0", "2001000"},
		{"10.0.0", "10000000"},
		{"1.2.3-beta.1", "1002003"},
		{"1.2", "1002"},
	}
	for _, c := range cases {
		if got := EncodeClientVersion(c.in); got != c.want {
			t.Errorf("EncodeClientVersion(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
