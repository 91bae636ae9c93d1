package ftpd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// handleNOOP does nothing but confirm the session is alive.
func (s *session) handleNOOP(param string) {
	s.reply(200, "NOOP ok")
}

// handleALLO is a historical pre-allocation hint; this adapter never
// needs it.
func (s *session) handleALLO(param string) {
	s.reply(202, "No storage allocation necessary")
}

// handleSYST reports the host operating system family.
func (s *session) handleSYST(param string) {
	switch runtime.GOOS {
	case "windows":
		s.reply(215, "Windows_NT")
	case "plan9":
		s.reply(215, "Plan9")
	case "linux", "darwin", "freebsd", "openbsd", "netbsd":
		s.reply(215, "UNIX Type: L8")
	default:
		s.reply(215, "UNKNOWN Type: L8")
	}
}

// handleSTAT reports session status with no argument, or delegates to
// LIST-style output when given a path.
func (s *session) handleSTAT(param string) {
	if param != "" {
		s.list(param, false)
		return
	}

	lines := []string{
		"Status of " + s.server.serverName,
		fmt.Sprintf("Connected to %s", s.remoteIP),
	}
	if s.loggedIn {
		lines = append(lines, fmt.Sprintf("Logged in as %s", s.user.Username))
	} else {
		lines = append(lines, "Not logged in")
	}
	lines = append(lines, fmt.Sprintf("TYPE: %c, STRUcture: File, MODE: Stream", s.dataType))

	s.dataMu.Lock()
	mode := s.dataModeVal
	s.dataMu.Unlock()
	switch mode {
	case dataActive:
		lines = append(lines, "Active data connection configured")
	case dataPassive:
		lines = append(lines, "Passive data connection configured")
	default:
		lines = append(lines, "No data connection configured")
	}
	lines = append(lines, "End of status")
	s.replyLines(211, lines...)
}

// handleHELP lists the commands this core dispatches.
func (s *session) handleHELP(param string) {
	if param != "" {
		cmd := strings.ToUpper(param)
		if _, ok := commandHandlers[cmd]; ok {
			s.reply(214, cmd+" is implemented")
			return
		}
		s.reply(502, cmd+" is not implemented")
		return
	}

	names := make([]string, 0, len(commandHandlers))
	for name := range commandHandlers {
		names = append(names, name)
	}
	lines := append([]string{"The following commands are recognized"}, wrapHelpNames(names)...)
	lines = append(lines, "Help OK")
	s.replyLines(214, lines...)
}

func wrapHelpNames(names []string) []string {
	const perLine = 8
	var lines []string
	for i := 0; i < len(names); i += perLine {
		end := i + perLine
		if end > len(names) {
			end = len(names)
		}
		lines = append(lines, strings.Join(names[i:end], " "))
	}
	return lines
}

// handleSITE implements SITE HELP and SITE CHMOD.
func (s *session) handleSITE(param string) {
	fields := strings.Fields(param)
	if len(fields) == 0 {
		s.reply(501, "Syntax error in parameters")
		return
	}
	switch strings.ToUpper(fields[0]) {
	case "HELP":
		s.replyLines(214, "CHMOD HELP are recognized", "Help OK")
	case "CHMOD":
		if len(fields) != 3 {
			s.reply(501, "Syntax error in parameters")
			return
		}
		mode, err := strconv.ParseUint(fields[1], 8, 32)
		if err != nil || mode > 0777 {
			s.reply(501, "Syntax error in parameters")
			return
		}
		target := toAbsoluteFTP(s.workingDir, fields[2])
		if !s.requirePermission("SITE CHMOD", target, PermFileWrite) {
			return
		}
		if err := s.fs.chmod(target, os.FileMode(mode)); err != nil {
			s.replyError(err, false)
			return
		}
		s.reply(200, "SITE CHMOD command successful")
	default:
		s.reply(502, "SITE command not implemented")
	}
}

// handleFEAT advertises the optional RFC extensions this core
// supports.
func (s *session) handleFEAT(param string) {
	s.replyLines(211,
		"Features",
		"SIZE",
		"REST STREAM",
		"MDTM",
		"MLST type*;size*;modify*;",
		"HASH SHA-1;SHA-256;SHA-512;MD5;CRC32",
		"End",
	)
}

// handleOPTS recognizes UTF8 and HASH options; everything else is
// rejected per the wire protocol's "none are required" policy.
func (s *session) handleOPTS(param string) {
	fields := strings.Fields(param)
	if len(fields) == 0 {
		s.reply(501, "Syntax error in parameters")
		return
	}
	switch strings.ToUpper(fields[0]) {
	case "UTF8":
		s.reply(200, "UTF8 set to on")
	case "HASH":
		if len(fields) != 2 {
			s.reply(501, "Syntax error in parameters")
			return
		}
		algo := strings.ToUpper(fields[1])
		switch algo {
		case "SHA-1", "SHA-256", "SHA-512", "MD5", "CRC32":
			s.selectedHash = algo
			s.reply(200, algo)
		default:
			s.reply(504, "Unsupported HASH algorithm")
		}
	default:
		s.reply(501, "Option not understood")
	}
}

// handleMDTM reports a file's modification time in RFC 3659 form.
func (s *session) handleMDTM(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("MDTM", target, PermFileRead) {
		return
	}
	st, err := s.fs.stat(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	s.reply(213, st.ModTime.UTC().Format("20060102150405"))
}

// handleHASH computes a checksum of a file using the session's
// selected algorithm (default SHA-256).
func (s *session) handleHASH(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("HASH", target, PermFileRead) {
		return
	}
	sum, err := s.fs.hash(target, s.selectedHash)
	if err != nil {
		s.replyError(err, false)
		return
	}
	s.replyLines(213, fmt.Sprintf("%s %s %s", s.selectedHash, sum, target))
}

// handleMLST reports RFC 3659 machine-readable facts for one entry.
func (s *session) handleMLST(param string) {
	target := s.workingDir
	if param != "" {
		target = toAbsoluteFTP(s.workingDir, param)
	}
	if !s.requirePermission("MLST", target, PermDirList) {
		return
	}
	st, err := s.fs.stat(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	s.replyLines(250, "Listing "+target, mlstFact(st), "End")
}

// handleMLSD streams RFC 3659 machine-readable directory facts over
// the data connection.
func (s *session) handleMLSD(param string) {
	target := s.workingDir
	if param != "" {
		target = toAbsoluteFTP(s.workingDir, param)
	}
	if !s.requirePermission("MLSD", target, PermDirList) {
		return
	}
	entries, err := s.fs.list(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	conn, err := s.openDataConn()
	if err != nil {
		s.replyError(err, false)
		return
	}
	s.reply(150, "Here comes the directory listing")

	s.startTransfer("MLSD", target, func(ctx context.Context) (int64, error) {
		var b strings.Builder
		for _, name := range sortedNames(entries) {
			b.WriteString(mlstFact(entries[name]))
			b.WriteString("\r\n")
		}
		return copyWithCancel(ctx, s.wrapWriter(conn), strings.NewReader(b.String()))
	})
}

func mlstFact(st FileStatus) string {
	typ := "file"
	if st.Kind == KindDir {
		typ = "dir"
	}
	return fmt.Sprintf("type=%s;size=%d;modify=%s; %s",
		typ, st.Size, st.ModTime.UTC().Format("20060102150405"), st.Name)
}
