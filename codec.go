package ftpd

import (
	"fmt"
	"strings"
)

// normalizeCmdName upper-cases a command name for dispatch-table and
// disabled-command lookups.
func normalizeCmdName(cmd string) string {
	return strings.ToUpper(cmd)
}

// parseCommandLine tokenizes a CRLF-stripped control line into an
// upper-cased command and its verbatim parameter, per the wire
// protocol's "COMMAND [SP PARAM]" grammar.
func parseCommandLine(line string) (cmd, param string) {
	line = strings.TrimRight(line, "\r\n")
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return strings.ToUpper(line), ""
	}
	return strings.ToUpper(line[:idx]), line[idx+1:]
}

// formatReply renders a single or multi-line FTP reply. A single
// string produces "NNN text\r\n"; multiple strings produce RFC 959
// multi-line form, with every line but the last prefixed "NNN-" and
// the last prefixed "NNN ".
func formatReply(code int, lines ...string) string {
	if len(lines) == 0 {
		lines = []string{""}
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%d %s\r\n", code, lines[0])
	}
	var b strings.Builder
	for i, l := range lines {
		if i == len(lines)-1 {
			fmt.Fprintf(&b, "%d %s\r\n", code, l)
		} else {
			fmt.Fprintf(&b, "%d-%s\r\n", code, l)
		}
	}
	return b.String()
}
