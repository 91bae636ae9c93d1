package ftpd

import "testing"

func TestToAbsoluteFTP(t *testing.T) {
	cases := []struct {
		wd, input, want string
	}{
		{"/", "foo", "/foo"},
		{"/a/b", "foo", "/a/b/foo"},
		{"/a/b", "/foo", "/foo"},
		{"/a/b", "..", "/a"},
		{"/", "..", "/"},
		{"/a", "../../../etc", "/etc"},
		{"/a/b", ".", "/a/b"},
		{"/a/b", "./c/../d", "/a/b/d"},
		{"/", "", "/"},
	}
	for _, c := range cases {
		got := toAbsoluteFTP(c.wd, c.input)
		if got != c.want {
			t.Errorf("toAbsoluteFTP(%q, %q) = %q, want %q", c.wd, c.input, got, c.want)
		}
	}
}

func TestQuoteFTPPath(t *testing.T) {
	if got := quoteFTPPath("/a/b"); got != `"/a/b"` {
		t.Errorf("got %q", got)
	}
	if got := quoteFTPPath(`/a"b`); got != `"/a""b"` {
		t.Errorf("got %q", got)
	}
}

func TestFtpBase(t *testing.T) {
	cases := map[string]string{
		"/":        "",
		"/a":       "a",
		"/a/b":     "b",
		"/a/b/c.d": "c.d",
	}
	for in, want := range cases {
		if got := ftpBase(in); got != want {
			t.Errorf("ftpBase(%q) = %q, want %q", in, got, want)
		}
	}
}
