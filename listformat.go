package ftpd

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// modeString renders a ten-character UNIX-style mode string, e.g.
// "-rw-r--r--" or "drwxr-xr-x". Each of the owner, group and other
// triads is taken from its own read/write/execute bits of mode.Perm();
// every kind other than a directory is shown with a leading '-'.
func modeString(kind FileKind, mode fs.FileMode) string {
	var b strings.Builder
	switch kind {
	case KindDir:
		b.WriteByte('d')
	default:
		b.WriteByte('-')
	}

	triad := func(r, w, x bool) {
		if r {
			b.WriteByte('r')
		} else {
			b.WriteByte('-')
		}
		if w {
			b.WriteByte('w')
		} else {
			b.WriteByte('-')
		}
		if x {
			b.WriteByte('x')
		} else {
			b.WriteByte('-')
		}
	}

	perm := mode.Perm()
	triad(perm&0400 != 0, perm&0200 != 0, perm&0100 != 0)
	triad(perm&0040 != 0, perm&0020 != 0, perm&0010 != 0)
	triad(perm&0004 != 0, perm&0002 != 0, perm&0001 != 0)
	return b.String()
}

var shortMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// listDateTime renders the date column: "Mmm DD HH:MM" for entries
// modified within the last six months, "Mmm DD  YYYY" otherwise,
// matching `ls -l`'s locale-independent English-month convention.
func listDateTime(modTime, now time.Time) string {
	month := shortMonths[modTime.Month()-1]
	day := modTime.Day()
	if now.Sub(modTime) < 6*30*24*time.Hour && !modTime.After(now) {
		return fmt.Sprintf("%s %2d %02d:%02d", month, day, modTime.Hour(), modTime.Minute())
	}
	return fmt.Sprintf("%s %2d  %d", month, day, modTime.Year())
}

// formatListLine renders a single LIST entry per the wire protocol's
// UNIX-style directory listing format.
func formatListLine(st FileStatus, now time.Time) string {
	return fmt.Sprintf("%s 1 %s %s %8d %s %s",
		modeString(st.Kind, st.Mode), st.Owner, st.Group, st.Size,
		listDateTime(st.ModTime, now), st.Name)
}

// sortedNames returns the directory's entry names sorted
// lexicographically so LIST/NLST output is stable across calls.
func sortedNames(entries map[string]FileStatus) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
