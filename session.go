package ftpd

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ftpd/ftpd/internal/ratelimit"
)

// dataMode enumerates a session's data-channel setup.
type dataMode int

const (
	dataNone dataMode = iota
	dataActive
	dataPassive
)

// maxCommandLineLength bounds a single control-channel line: a longer
// line ends the session. The length is checked after the whole line
// has been read, so it does not limit how much is buffered first.
const maxCommandLineLength = 4096

// preLoginAllowed lists the commands a session may dispatch before a
// successful login, per the testable property that every other
// command replies 530 pre-login.
var preLoginAllowed = map[string]bool{
	"USER": true, "PASS": true, "ACCT": true, "QUIT": true,
	"FEAT": true, "NOOP": true, "HELP": true,
}

// session is the per-connection protocol state machine (component C5).
type session struct {
	server    *Server
	conn      net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	sessionID string
	remoteIP  string

	mu       sync.Mutex // control-side serializer: reply ordering, last-reply bookkeeping
	lastCode int
	lastText string

	loggedIn      bool
	userCandidate string
	user          *User
	fs            *fsAdapter

	workingDir    string
	dataType      byte
	restartOffset uint64
	renameFrom    string
	selectedHash  string

	shutdownRequested bool

	dataMu       sync.Mutex // data-side serializer: data_mode, acceptor, live data socket
	dataModeVal  dataMode
	activeAddr   *net.TCPAddr
	pasvListener net.Listener
	dataConn     net.Conn

	busy           atomic.Bool
	transferCancel context.CancelFunc
	transferWG     sync.WaitGroup
	userLimiter    *ratelimit.Limiter

	closeOnce sync.Once
}

func newSession(srv *Server, conn net.Conn) *session {
	s := &session{
		server:       srv,
		conn:         conn,
		sessionID:    generateSessionID(),
		remoteIP:     remoteIP(conn),
		workingDir:   "/",
		dataType:     'A',
		selectedHash: "SHA-256",
	}
	if srv.perUserLimit > 0 {
		s.userLimiter = ratelimit.New(srv.perUserLimit)
	}
	tr := newTelnetFilterReader(conn)
	s.reader = bufio.NewReader(tr)
	s.writer = bufio.NewWriter(conn)
	return s
}

func generateSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

// serve runs the session's command loop until QUIT or connection drop.
func (s *session) serve() {
	log := s.server.logger
	log.Info("ftpd: session start", "session_id", s.sessionID, "remote_ip", s.server.redactIP(s.remoteIP))
	defer log.Info("ftpd: session end", "session_id", s.sessionID)
	defer s.cleanup()

	s.reply(220, s.server.welcomeMessage)
	s.observe("CONNECT", "")

	for {
		line, err := s.readCommandLine()
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, param := parseCommandLine(line)
		s.dispatch(cmd, param)
		if s.shutdownRequested {
			s.writer.Flush()
			return
		}
	}
}

func (s *session) readCommandLine() (string, error) {
	s.conn.SetReadDeadline(time.Now().Add(s.server.maxIdleTime))
	line, err := s.reader.ReadString('\n')
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			s.reply(421, "Timeout - closing connection")
		}
		return "", err
	}
	if len(line) > maxCommandLineLength {
		return "", fmt.Errorf("ftpd: command line too long")
	}
	return line, nil
}

// dispatch runs one parsed command through the dispatch table,
// enforcing the disabled-commands list, the pre-login gate, and the
// busy gate, then fires the observer callback with the command's
// final reply.
func (s *session) dispatch(cmd, param string) {
	start := time.Now()
	success := true
	defer func() {
		if s.server.metrics != nil {
			s.server.metrics.RecordCommand(cmd, success, time.Since(start))
		}
	}()

	if s.server.disabledCommands[cmd] {
		s.reply(502, "Command not implemented")
		s.observe(cmd, param)
		success = false
		return
	}

	if !s.loggedIn && !preLoginAllowed[cmd] {
		s.reply(530, "Please login with USER and PASS")
		s.observe(cmd, param)
		success = false
		return
	}

	handler, ok := commandHandlers[cmd]
	if !ok {
		s.reply(500, "Unknown command")
		s.observe(cmd, param)
		success = false
		return
	}

	if s.busy.Load() && cmd != "ABOR" && cmd != "STAT" {
		s.reply(503, "Transfer in progress")
		s.observe(cmd, param)
		success = false
		return
	}

	// rename_from is cleared by RNTO itself (after use) or by any
	// other command, including a fresh RNFR.
	if cmd != "RNTO" {
		s.renameFrom = ""
	}

	handler(s, param)
	s.observe(cmd, param)
}

// reply sends a single-line FTP reply and records it for the observer
// callback.
func (s *session) reply(code int, text string) {
	s.replyLines(code, text)
}

// replyLines sends a single- or multi-line FTP reply.
func (s *session) replyLines(code int, lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := formatReply(code, lines...)
	s.writer.WriteString(out)
	s.writer.Flush()
	s.lastCode = code
	s.lastText = lines[len(lines)-1]
	s.server.logger.Debug("ftpd: reply", "session_id", s.sessionID, "code", code)
}

func (s *session) observe(cmd, param string) {
	s.mu.Lock()
	code, text := s.lastCode, s.lastText
	s.mu.Unlock()
	s.server.invokeCallback(cmd, param, code, text)
}

// replyError maps an internal error to a reply using the §7 taxonomy.
func (s *session) replyError(err error, inTransfer bool) {
	code, text := replyFor(err, inTransfer)
	s.reply(code, text)
}

// requirePermission replies 550 and returns false if the logged-in
// user lacks want.
func (s *session) requirePermission(cmd, path string, want Permission) bool {
	if !s.user.Permissions.Has(want) {
		s.replyError(&PermissionError{Cmd: cmd, Path: path}, false)
		return false
	}
	return true
}

// cleanup runs once per session on serve's return, tearing down the
// data channel and the user's filesystem handle.
func (s *session) cleanup() {
	s.closeOnce.Do(func() {
		if cancel := s.transferCancel; cancel != nil {
			cancel()
		}
		s.transferWG.Wait()
		s.clearDataMode()
		if s.fs != nil {
			s.fs.close()
		}
	})
}

// forceClose is called by Server.Stop to terminate the session
// immediately without waiting for the client; clients receive no
// farewell.
func (s *session) forceClose() {
	s.conn.Close()
}

func (s *session) validateActiveIP(ip string) bool {
	return ip == s.remoteIP
}
