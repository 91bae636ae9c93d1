package ftpd

import "strings"

// handleUSER implements the first step of the login subprotocol.
// Unknown usernames still receive 331 to avoid account enumeration.
func (s *session) handleUSER(param string) {
	username := strings.TrimSpace(param)
	if username == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	s.loggedIn = false
	s.user = nil
	s.userCandidate = username

	if isAnonymousUsername(username) {
		if user, ok := s.server.users.authenticate(username, ""); ok {
			s.finishLogin(user)
			return
		}
	}
	s.reply(331, "Password required for "+username)
}

// handlePASS implements the second step of the login subprotocol.
func (s *session) handlePASS(param string) {
	if s.userCandidate == "" {
		s.reply(503, "Login with USER first")
		return
	}
	user, ok := s.server.users.authenticate(s.userCandidate, param)
	if !ok {
		s.recordAuth(false, s.userCandidate)
		s.userCandidate = ""
		s.reply(530, "Login incorrect")
		return
	}
	s.finishLogin(user)
}

func (s *session) finishLogin(user *User) {
	fs, err := newFsAdapter(user.LocalRoot)
	if err != nil {
		s.recordAuth(false, user.Username)
		s.reply(530, "Login incorrect")
		return
	}
	s.user = user
	s.fs = fs
	s.loggedIn = true
	s.workingDir = "/"
	s.userCandidate = ""
	s.recordAuth(true, user.Username)
	s.server.logger.Info("ftpd: login", "session_id", s.sessionID, "user", user.Username)
	s.reply(230, "Login successful")
}

func (s *session) recordAuth(success bool, user string) {
	if s.server.metrics != nil {
		s.server.metrics.RecordAuthentication(success, user)
	}
}

// handleACCT implements the accounting step; this core has no
// accounting concept so it always succeeds.
func (s *session) handleACCT(param string) {
	s.reply(202, "Command not needed")
}

// handleREIN logs the session out and resets it to its just-connected
// state without closing the control connection.
func (s *session) handleREIN(param string) {
	s.clearDataMode()
	if s.fs != nil {
		s.fs.close()
		s.fs = nil
	}
	s.loggedIn = false
	s.user = nil
	s.userCandidate = ""
	s.workingDir = "/"
	s.renameFrom = ""
	s.restartOffset = 0
	s.dataType = 'A'
	s.reply(220, s.server.welcomeMessage)
}

// handleQUIT marks the session for shutdown after its reply is
// flushed; serve() closes the connection once dispatch returns.
func (s *session) handleQUIT(param string) {
	s.reply(221, "Goodbye")
	s.shutdownRequested = true
}
