package ftpd

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-ftpd/ftpd/internal/ratelimit"
)

// CommandCallback observes every command a session dispatches, after
// its reply has been enqueued. Invocations are synchronous on a
// worker goroutine and must not block.
type CommandCallback func(cmd, param string, code int, text string)

// Server is the embeddable FTP server facade (component C7): lifecycle,
// user registration, and command-callback registration sit here; the
// acceptor and worker pool (C6) are owned internally.
type Server struct {
	address string
	port    uint16

	logger         *slog.Logger
	welcomeMessage string
	serverName     string

	maxIdleTime time.Duration

	maxConnections      int
	maxConnectionsPerIP int

	pasvMinPort int
	pasvMaxPort int
	publicHost  string
	pasvCursor  atomic.Int32

	globalLimiter *ratelimit.Limiter
	perUserLimit  int64

	metrics          MetricsCollector
	pathRedactor     PathRedactor
	ipRedactor       IPRedactor
	disabledCommands map[string]bool
	transferLog      func(line string)

	users *userDB

	callback atomic.Pointer[CommandCallback]

	mu          sync.Mutex
	running     bool
	listener    net.Listener
	jobs        chan net.Conn
	sessions    map[*session]struct{}
	connsByIP   map[string]int
	activeConns atomic.Int32
	workersWG   sync.WaitGroup
	acceptWG    sync.WaitGroup
}

// NewServer constructs a Server bound to address:port once Start is
// called. An empty address defaults to "0.0.0.0"; port 0 defaults to
// 21.
func NewServer(address string, port uint16, options ...Option) (*Server, error) {
	if address == "" {
		address = "0.0.0.0"
	}
	if port == 0 {
		port = 21
	}

	s := &Server{
		address:             address,
		port:                port,
		logger:              slog.Default(),
		welcomeMessage:       "Welcome",
		serverName:           "go-ftpd",
		maxIdleTime:          300 * time.Second,
		maxConnections:       0,
		maxConnectionsPerIP:  0,
		disabledCommands:     make(map[string]bool),
		users:                newUserDB(),
		sessions:             make(map[*session]struct{}),
		connsByIP:            make(map[string]int),
	}

	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("ftpd: option failed: %w", err)
		}
	}
	return s, nil
}

// AddUser registers a named user, returning false if the username is
// invalid, already registered, or localRoot is empty. See userDB.addUser.
func (s *Server) AddUser(username, password, localRoot string, perms Permission) bool {
	return s.users.addUser(username, password, localRoot, perms)
}

// AddAnonymous registers the "anonymous"/"ftp" aliases, accepting any
// password.
func (s *Server) AddAnonymous(localRoot string, perms Permission) bool {
	return s.users.addAnonymous(localRoot, perms)
}

// SetCommandCallback registers the observer invoked after every
// command's reply is enqueued, with (command, param, reply_code,
// reply_text).
func (s *Server) SetCommandCallback(f func(cmd, param string, code int, text string)) {
	if f == nil {
		s.callback.Store(nil)
		return
	}
	cb := CommandCallback(f)
	s.callback.Store(&cb)
}

func (s *Server) invokeCallback(cmd, param string, code int, text string) {
	cbp := s.callback.Load()
	if cbp == nil {
		return
	}
	(*cbp)(cmd, param, code, text)
}

// Address returns the configured bind address.
func (s *Server) Address() string { return s.address }

// Port returns the configured bind port.
func (s *Server) Port() uint16 { return s.port }

// OpenConnectionCount returns the number of currently open control
// connections.
func (s *Server) OpenConnectionCount() int {
	return int(s.activeConns.Load())
}

// Start binds the listener and launches threadCount worker goroutines
// that share a single accept queue. It returns false if the server is
// already running, threadCount < 1, or the bind fails.
func (s *Server) Start(threadCount int) bool {
	if threadCount < 1 {
		return false
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.address, strconv.Itoa(int(s.port))))
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("ftpd: listen failed", "error", err)
		return false
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = uint16(tcpAddr.Port)
	}

	s.listener = ln
	s.jobs = make(chan net.Conn)
	s.running = true
	s.mu.Unlock()

	s.acceptWG.Add(1)
	go s.acceptLoop()

	s.workersWG.Add(threadCount)
	for i := 0; i < threadCount; i++ {
		go s.worker()
	}

	s.logger.Info("ftpd: started", "address", s.address, "port", s.port, "workers", threadCount)
	return true
}

func (s *Server) acceptLoop() {
	defer s.acceptWG.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := !s.running
			s.mu.Unlock()
			if stopped {
				return
			}
			s.logger.Warn("ftpd: accept error", "error", err)
			continue
		}
		// Blocks until a worker is free; concurrency is deliberately
		// bounded by the pool size, with the OS backlog absorbing the
		// wait for the next free worker.
		s.jobs <- conn
	}
}

func (s *Server) worker() {
	defer s.workersWG.Done()
	for conn := range s.jobs {
		s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	ip := remoteIP(conn)

	if reason, ok := s.admitConnection(ip); !ok {
		s.recordConnection(false, reason)
		fmt.Fprintf(conn, "421 %s\r\n", "Too many connections")
		conn.Close()
		return
	}
	s.recordConnection(true, "accepted")
	s.activeConns.Add(1)

	sess := newSession(s, conn)
	s.trackSession(sess, ip)

	sess.serve()

	s.untrackSession(sess, ip)
	s.activeConns.Add(-1)
	conn.Close()
}

func (s *Server) admitConnection(ip string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxConnections > 0 && len(s.sessions) >= s.maxConnections {
		return "max_connections", false
	}
	if s.maxConnectionsPerIP > 0 && s.connsByIP[ip] >= s.maxConnectionsPerIP {
		return "max_connections_per_ip", false
	}
	return "accepted", true
}

func (s *Server) trackSession(sess *session, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess] = struct{}{}
	s.connsByIP[ip]++
}

func (s *Server) untrackSession(sess *session, ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
	s.connsByIP[ip]--
	if s.connsByIP[ip] <= 0 {
		delete(s.connsByIP, ip)
	}
}

func (s *Server) recordConnection(accepted bool, reason string) {
	if s.metrics != nil {
		s.metrics.RecordConnection(accepted, reason)
	}
}

// Stop cancels the acceptor, closes every open session's sockets
// immediately (clients receive no farewell, per the facade's
// documented shutdown behavior), and joins the worker pool.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	listener := s.listener
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	for _, sess := range sessions {
		sess.forceClose()
	}

	s.acceptWG.Wait()
	close(s.jobs)
	s.workersWG.Wait()

	s.logger.Info("ftpd: stopped")
}

// nextPasvPort returns the next candidate port in the configured PASV
// range, round-robin, or 0 to let the OS choose when no range was
// configured.
func (s *Server) nextPasvPort() int {
	if s.pasvMinPort <= 0 || s.pasvMaxPort < s.pasvMinPort {
		return 0
	}
	span := int32(s.pasvMaxPort - s.pasvMinPort + 1)
	next := s.pasvCursor.Add(1) - 1
	return s.pasvMinPort + int(next%span)
}

// redactPath applies the configured PathRedactor, if any.
func (s *Server) redactPath(path string) string {
	if s.pathRedactor == nil {
		return path
	}
	return s.pathRedactor(path)
}

// redactIP applies the configured IPRedactor, if any.
func (s *Server) redactIP(ip string) string {
	if s.ipRedactor == nil {
		return ip
	}
	return s.ipRedactor(ip)
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

func (s *Server) advertiseHost(conn net.Conn) string {
	if s.publicHost != "" {
		return s.publicHost
	}
	host, _, err := net.SplitHostPort(conn.LocalAddr().String())
	if err != nil {
		return s.address
	}
	return host
}
