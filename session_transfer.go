package ftpd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-ftpd/ftpd/internal/ratelimit"
)

// wrapReader applies the global and per-session bandwidth limiters, in
// that order, to a transfer's source reader.
func (s *session) wrapReader(r io.Reader) io.Reader {
	r = ratelimit.NewReader(r, s.server.globalLimiter)
	r = ratelimit.NewReader(r, s.userLimiter)
	return r
}

// wrapWriter applies the global and per-session bandwidth limiters to
// a transfer's sink writer.
func (s *session) wrapWriter(w io.Writer) io.Writer {
	w = ratelimit.NewWriter(w, s.server.globalLimiter)
	w = ratelimit.NewWriter(w, s.userLimiter)
	return w
}

func (s *session) logTransfer(op, path string, size int64, ok bool) {
	if s.server.transferLog == nil {
		return
	}
	status := "c"
	if !ok {
		status = "i"
	}
	s.server.transferLog(fmt.Sprintf("%s %s %s %s %d %s",
		time.Now().UTC().Format(time.ANSIC), s.server.redactIP(s.remoteIP), op, s.server.redactPath(path), size, status))
}

// handleRETR streams a file to the data connection, honoring
// restart_offset, requiring FileRead.
func (s *session) handleRETR(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("RETR", target, PermFileRead) {
		return
	}
	st, err := s.fs.stat(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	if st.Kind != KindFile {
		s.replyError(&FsError{Kind: FsIsADirectory, Path: target}, false)
		return
	}

	offset := int64(s.restartOffset)
	src, err := s.fs.openRead(target, offset)
	if err != nil {
		s.replyError(err, false)
		return
	}

	conn, err := s.openDataConn()
	if err != nil {
		src.Close()
		s.replyError(err, false)
		return
	}
	s.reply(150, "Opening data connection")

	s.startTransfer("RETR", target, func(ctx context.Context) (int64, error) {
		defer src.Close()
		return copyWithCancel(ctx, s.wrapWriter(conn), src)
	})
}

// handleSTOR creates or truncates a file and streams the data
// connection's bytes into it, requiring FileWrite.
func (s *session) handleSTOR(param string) {
	s.store(param, OpenTruncate, "STOR")
}

// handleAPPE opens a file for append, requiring FileAppend.
func (s *session) handleAPPE(param string) {
	s.store(param, OpenAppend, "APPE")
}

func (s *session) store(param string, mode OpenMode, cmdName string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)

	want := PermFileWrite
	if cmdName == "APPE" {
		want = PermFileAppend
	}
	if !s.requirePermission(cmdName, target, want) {
		return
	}

	offset := int64(s.restartOffset)
	dst, err := s.fs.openWrite(target, mode, offset)
	if err != nil {
		s.replyError(err, false)
		return
	}

	conn, err := s.openDataConn()
	if err != nil {
		dst.Close()
		s.replyError(err, false)
		return
	}
	s.reply(150, "Opening data connection")

	s.startTransfer(cmdName, target, func(ctx context.Context) (int64, error) {
		defer dst.Close()
		return copyWithCancel(ctx, dst, s.wrapReader(conn))
	})
}

// handleSTOU generates a unique filename in the target directory and
// otherwise behaves like STOR.
func (s *session) handleSTOU(param string) {
	dir := s.workingDir
	if param != "" {
		dir = toAbsoluteFTP(s.workingDir, param)
	}
	if !s.requirePermission("STOU", dir, PermFileWrite) {
		return
	}
	if !s.requirePermission("STOU", dir, PermDirList) {
		return
	}

	name, err := s.uniqueName(dir)
	if err != nil {
		s.replyError(err, false)
		return
	}
	target := toAbsoluteFTP(dir, name)

	dst, err := s.fs.openWrite(target, OpenTruncate, 0)
	if err != nil {
		s.replyError(err, false)
		return
	}

	conn, err := s.openDataConn()
	if err != nil {
		dst.Close()
		s.replyError(err, false)
		return
	}
	s.reply(150, fmt.Sprintf("FILE: %s", target))

	s.startTransfer("STOU", target, func(ctx context.Context) (int64, error) {
		defer dst.Close()
		return copyWithCancel(ctx, dst, s.wrapReader(conn))
	})
}

// uniqueName implements the recommended STOU naming policy, retrying
// on collision.
func (s *session) uniqueName(dir string) (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		candidate := fmt.Sprintf("u_%d_%d", time.Now().UnixNano(), attempt)
		target := toAbsoluteFTP(dir, candidate)
		if _, err := s.fs.stat(target); err != nil {
			return candidate, nil
		}
	}
	return "", &FsError{Kind: FsExists, Path: dir, Message: "could not allocate unique name"}
}

// handleLIST renders the UNIX ls -l style listing used by most FTP
// clients' directory browsers, requiring DirList.
func (s *session) handleLIST(param string) {
	s.list(param, false)
}

// handleNLST renders a bare-name listing, requiring DirList.
func (s *session) handleNLST(param string) {
	s.list(param, true)
}

func (s *session) list(param string, namesOnly bool) {
	target := s.workingDir
	if param != "" {
		target = toAbsoluteFTP(s.workingDir, param)
	}
	if !s.requirePermission("LIST", target, PermDirList) {
		return
	}

	entries, err := s.fs.list(target)
	if err != nil {
		// A LIST of a single existing file lists just that file.
		if st, statErr := s.fs.stat(target); statErr == nil && st.Kind == KindFile {
			entries = map[string]FileStatus{st.Name: st}
		} else {
			s.replyError(err, false)
			return
		}
	}

	conn, err := s.openDataConn()
	if err != nil {
		s.replyError(err, false)
		return
	}
	s.reply(150, "Here comes the directory listing")

	op := "NLST"
	if !namesOnly {
		op = "LIST"
	}
	s.startTransfer(op, target, func(ctx context.Context) (int64, error) {
		now := time.Now()
		var b strings.Builder
		for _, name := range sortedNames(entries) {
			if namesOnly {
				b.WriteString(name)
			} else {
				b.WriteString(formatListLine(entries[name], now))
			}
			b.WriteString("\r\n")
		}
		return io.Copy(s.wrapWriter(conn), strings.NewReader(b.String()))
	})
}

// handleSIZE reports a regular file's size in bytes; only meaningful
// in binary type.
func (s *session) handleSIZE(param string) {
	if s.dataType != 'I' {
		s.reply(504, "SIZE not supported in ASCII mode")
		return
	}
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("SIZE", target, PermFileRead) {
		return
	}
	st, err := s.fs.stat(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	if st.Kind != KindFile {
		s.replyError(&FsError{Kind: FsIsADirectory, Path: target}, false)
		return
	}
	s.reply(213, fmt.Sprintf("%d", st.Size))
}

// handleABOR cancels the in-flight transfer, if any, and waits for its
// own 426/451 reply to be enqueued before sending ABOR's 226 — the
// ordering the control channel is required to preserve.
func (s *session) handleABOR(param string) {
	if !s.busy.Load() {
		s.reply(225, "No transfer in progress")
		return
	}
	if cancel := s.transferCancel; cancel != nil {
		cancel()
	}
	s.closeDataConn()
	s.transferWG.Wait()
	s.reply(226, "Abort successful")
}

// copyWithCancel copies src to dst, aborting promptly when ctx is
// canceled instead of waiting for the next blocking read/write to
// notice a closed socket. On cancellation it returns 0 and ctx.Err()
// without waiting for the copy goroutine, so the byte count of an
// aborted transfer is not reported.
func copyWithCancel(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	type result struct {
		n   int64
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := io.Copy(dst, src)
		done <- result{n, err}
	}()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-done:
		return r.n, r.err
	}
}
