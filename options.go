package ftpd

import (
	"log/slog"
	"time"

	"github.com/go-ftpd/ftpd/internal/ratelimit"
)

// Option configures a Server at construction time.
type Option func(*Server) error

// WithLogger sets the structured logger used for lifecycle, audit, and
// per-command tracing. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithWelcomeMessage sets the text sent in the 220 greeting.
func WithWelcomeMessage(msg string) Option {
	return func(s *Server) error {
		s.welcomeMessage = msg
		return nil
	}
}

// WithServerName sets the name reported in the STAT status banner.
func WithServerName(name string) Option {
	return func(s *Server) error {
		s.serverName = name
		return nil
	}
}

// WithMaxIdleTime sets the per-session idle timeout. After this much
// time without a command, the session receives 421 and is closed.
func WithMaxIdleTime(d time.Duration) Option {
	return func(s *Server) error {
		s.maxIdleTime = d
		return nil
	}
}

// WithMaxConnections caps the number of simultaneously open control
// connections. Additional connections are rejected with 421.
func WithMaxConnections(n int) Option {
	return func(s *Server) error {
		s.maxConnections = n
		return nil
	}
}

// WithMaxConnectionsPerIP caps the number of simultaneously open
// control connections from a single remote address.
func WithMaxConnectionsPerIP(n int) Option {
	return func(s *Server) error {
		s.maxConnectionsPerIP = n
		return nil
	}
}

// WithPasvPortRange restricts PASV acceptors to an explicit port
// range instead of letting the OS choose, useful when the server sits
// behind a firewall with a narrow forwarded range.
func WithPasvPortRange(min, max int) Option {
	return func(s *Server) error {
		s.pasvMinPort = min
		s.pasvMaxPort = max
		return nil
	}
}

// WithPublicHost sets the address advertised in PASV replies, useful
// when the server is behind NAT and its socket-local address isn't
// externally reachable.
func WithPublicHost(host string) Option {
	return func(s *Server) error {
		s.publicHost = host
		return nil
	}
}

// WithGlobalBandwidthLimit caps aggregate transfer throughput across
// all sessions, in bytes per second.
func WithGlobalBandwidthLimit(bytesPerSecond int64) Option {
	return func(s *Server) error {
		s.globalLimiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}

// WithPerUserBandwidthLimit caps each session's transfer throughput,
// in bytes per second.
func WithPerUserBandwidthLimit(bytesPerSecond int64) Option {
	return func(s *Server) error {
		s.perUserLimit = bytesPerSecond
		return nil
	}
}

// WithMetricsCollector registers a hook for exporting server metrics.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// WithPathRedactor sets a function used to redact the virtual FTP
// paths written to the transfer log.
func WithPathRedactor(f PathRedactor) Option {
	return func(s *Server) error {
		s.pathRedactor = f
		return nil
	}
}

// WithIPRedactor sets a function used to redact remote addresses
// before they appear in log output.
func WithIPRedactor(f IPRedactor) Option {
	return func(s *Server) error {
		s.ipRedactor = f
		return nil
	}
}

// WithDisabledCommands prevents the listed commands (upper-cased)
// from being dispatched; the session replies 502 for each.
func WithDisabledCommands(cmds ...string) Option {
	return func(s *Server) error {
		for _, c := range cmds {
			s.disabledCommands[normalizeCmdName(c)] = true
		}
		return nil
	}
}

// WithTransferLog sets a hook invoked after every completed or failed
// transfer with an xferlog-style summary line, grounded on the
// teacher's logTransfer helper.
func WithTransferLog(f func(line string)) Option {
	return func(s *Server) error {
		s.transferLog = f
		return nil
	}
}
