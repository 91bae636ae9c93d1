package ftpd

import (
	"io/fs"
	"testing"
	"time"
)

func TestModeString(t *testing.T) {
	if got := modeString(KindDir, fs.FileMode(0755)); got != "drwxr-xr-x" {
		t.Errorf("got %q", got)
	}
	if got := modeString(KindFile, fs.FileMode(0644)); got != "-rw-r--r--" {
		t.Errorf("got %q", got)
	}
}

func TestListDateTimeRecentVsOld(t *testing.T) {
	now := time.Date(2026, time.August, 3, 12, 0, 0, 0, time.UTC)

	recent := now.Add(-24 * time.Hour)
	got := listDateTime(recent, now)
	want := "Aug  2 12:00"
	if got != want {
		t.Errorf("recent: got %q, want %q", got, want)
	}

	old := now.Add(-400 * 24 * time.Hour)
	got = listDateTime(old, now)
	want = "Jun 29  2025"
	if got != want {
		t.Errorf("old: got %q, want %q", got, want)
	}
}

func TestSortedNames(t *testing.T) {
	entries := map[string]FileStatus{
		"c.txt": {Name: "c.txt"},
		"a.txt": {Name: "a.txt"},
		"b.txt": {Name: "b.txt"},
	}
	got := sortedNames(entries)
	want := []string{"a.txt", "b.txt", "c.txt"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
