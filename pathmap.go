package ftpd

import (
	"strings"
)

// toAbsoluteFTP resolves input against currentWD and normalizes the
// result: "." segments are dropped, ".." pops the previous segment (or
// is clamped at root), and the result is always "/"-rooted with no
// trailing slash except for "/" itself.
func toAbsoluteFTP(currentWD, input string) string {
	input = strings.ReplaceAll(input, "\\", "/")
	var joined string
	if strings.HasPrefix(input, "/") {
		joined = input
	} else {
		joined = currentWD + "/" + input
	}

	segments := strings.Split(joined, "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return "/"
	}
	return "/" + strings.Join(stack, "/")
}

// quoteFTPPath produces the RFC 959 quoted representation used in 257
// replies: wrapped in double quotes, internal quotes doubled.
func quoteFTPPath(p string) string {
	return `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
}

// ftpBase returns the final segment of an already-normalized FTP path.
func ftpBase(ftpPath string) string {
	trimmed := strings.TrimPrefix(ftpPath, "/")
	if trimmed == "" {
		return ""
	}
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
