package ftpd

import "time"

// PathRedactor redacts a file's virtual FTP path before it is written
// to the transfer log (see WithTransferLog). Local filesystem paths
// are not written to any log, so it is not applied to them.
type PathRedactor func(path string) string

// IPRedactor redacts a remote address before it reaches logs.
type IPRedactor func(ip string) string

// MetricsCollector is an optional hook for exporting server metrics to
// monitoring systems such as Prometheus or StatsD. The core ships no
// concrete implementation; an embedding application supplies one.
//
// Every method is called synchronously from a worker goroutine and
// must not block; implementations that need to do real work should
// hand off to their own executor.
type MetricsCollector interface {
	// RecordCommand records a single command's execution.
	RecordCommand(cmd string, success bool, duration time.Duration)

	// RecordTransfer records a completed or failed data transfer.
	// operation is one of "RETR", "STOR", "APPE", "STOU", "LIST",
	// "NLST", "MLSD".
	RecordTransfer(operation string, bytes int64, duration time.Duration)

	// RecordConnection records an accept decision for an incoming
	// control connection. reason is e.g. "accepted", "max_connections",
	// "max_connections_per_ip".
	RecordConnection(accepted bool, reason string)

	// RecordAuthentication records a login attempt.
	RecordAuthentication(success bool, user string)
}
