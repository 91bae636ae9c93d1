package ftpd

import (
	"context"
	"errors"
	"net"
	"time"
)

// isCanceled reports whether err stems from a context cancellation,
// the signal ABOR uses to interrupt an in-flight transfer.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// passiveAcceptTimeout bounds how long a PASV acceptor waits for the
// client to connect before the pending transfer command fails.
const passiveAcceptTimeout = 60 * time.Second

// activeDialTimeout bounds how long an active-mode data dial waits to
// connect back to the client's advertised endpoint.
const activeDialTimeout = 10 * time.Second

// openDataConn establishes the data connection for a service command,
// dialing out in active mode or accepting the one pending connection
// in passive mode.
func (s *session) openDataConn() (net.Conn, error) {
	s.dataMu.Lock()
	mode := s.dataModeVal
	addr := s.activeAddr
	ln := s.pasvListener
	s.dataMu.Unlock()

	switch mode {
	case dataActive:
		d := net.Dialer{Timeout: activeDialTimeout}
		conn, err := d.Dial("tcp", addr.String())
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		s.setDataConn(conn)
		return conn, nil
	case dataPassive:
		if ln == nil {
			return nil, &ProtocolError{Kind: WrongSequence, Cmd: "PASV"}
		}
		if tcpLn, ok := ln.(*net.TCPListener); ok {
			tcpLn.SetDeadline(time.Now().Add(passiveAcceptTimeout))
		}
		conn, err := ln.Accept()
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		s.setDataConn(conn)
		return conn, nil
	default:
		return nil, &ProtocolError{Kind: WrongSequence, Cmd: "PORT or PASV"}
	}
}

func (s *session) setDataConn(conn net.Conn) {
	s.dataMu.Lock()
	s.dataConn = conn
	s.dataMu.Unlock()
}

// closeDataConn closes the live data socket, if any, without
// disturbing the active/passive mode configuration itself.
func (s *session) closeDataConn() {
	s.dataMu.Lock()
	conn := s.dataConn
	s.dataConn = nil
	s.dataMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// clearDataMode tears down the data acceptor/endpoint entirely, as
// required once a transfer completes, aborts, or the session ends.
func (s *session) clearDataMode() {
	s.dataMu.Lock()
	s.dataModeVal = dataNone
	s.activeAddr = nil
	ln := s.pasvListener
	s.pasvListener = nil
	conn := s.dataConn
	s.dataConn = nil
	s.dataMu.Unlock()

	if ln != nil {
		ln.Close()
	}
	if conn != nil {
		conn.Close()
	}
}

// transferFunc streams a service command's payload and reports the
// number of bytes moved alongside the usual error.
type transferFunc func(ctx context.Context) (int64, error)

// startTransfer runs fn in a session-owned goroutine so the command
// loop can keep servicing ABOR/STAT while the transfer streams. It
// sends the reply for fn's outcome itself; by the time transferWG is
// done, that reply has already been enqueued, which is what lets
// handleABOR block until the transfer's own 426/451/226 precedes its
// own 226.
func (s *session) startTransfer(op, path string, fn transferFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	s.transferCancel = cancel
	s.busy.Store(true)
	s.transferWG.Add(1)
	go func() {
		defer s.transferWG.Done()
		start := time.Now()
		n, err := fn(ctx)
		s.transferCancel = nil
		s.busy.Store(false)
		s.finishTransfer(op, path, n, time.Since(start), err)
	}()
}

func (s *session) finishTransfer(op, path string, n int64, elapsed time.Duration, err error) {
	ok := err == nil
	s.closeDataConn()
	s.clearDataMode()
	s.restartOffset = 0
	switch {
	case err == nil:
		s.reply(226, "Transfer complete")
	case isCanceled(err):
		s.reply(426, "Connection closed; transfer aborted")
	default:
		s.replyError(err, true)
	}

	if s.server.metrics != nil {
		s.server.metrics.RecordTransfer(op, n, elapsed)
	}
	s.logTransfer(op, path, n, ok)
}
