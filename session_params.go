package ftpd

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// handleTYPE accepts Image or ASCII; both are treated as byte-identical
// on the wire, so only the negotiated value is remembered, for STAT
// reporting and for SIZE, which answers only in Image type.
func (s *session) handleTYPE(param string) {
	p := strings.ToUpper(strings.TrimSpace(param))
	switch p {
	case "I", "A":
		s.dataType = p[0]
		s.reply(200, "Type set to "+p)
	default:
		s.reply(504, "Type not supported")
	}
}

// handleSTRU accepts only file structure (F).
func (s *session) handleSTRU(param string) {
	if strings.ToUpper(strings.TrimSpace(param)) == "F" {
		s.reply(200, "Structure set to F")
		return
	}
	s.reply(504, "Structure not supported")
}

// handleMODE accepts only stream mode (S).
func (s *session) handleMODE(param string) {
	if strings.ToUpper(strings.TrimSpace(param)) == "S" {
		s.reply(200, "Mode set to S")
		return
	}
	s.reply(504, "Mode not supported")
}

// handlePORT parses the client's advertised active-mode endpoint and
// rejects any address that doesn't match the control connection's
// remote IP, guarding against FTP bounce attacks.
func (s *session) handlePORT(param string) {
	parts := strings.Split(param, ",")
	if len(parts) != 6 {
		s.reply(501, "Syntax error in parameters")
		return
	}
	nums := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			s.reply(501, "Syntax error in parameters")
			return
		}
		nums[i] = n
	}
	ip := fmt.Sprintf("%d.%d.%d.%d", nums[0], nums[1], nums[2], nums[3])
	port := nums[4]*256 + nums[5]

	if !s.validateActiveIP(ip) {
		s.reply(501, "PORT address does not match control connection")
		return
	}

	s.dataMu.Lock()
	if s.pasvListener != nil {
		s.pasvListener.Close()
		s.pasvListener = nil
	}
	s.activeAddr = &net.TCPAddr{IP: net.ParseIP(ip), Port: port}
	s.dataModeVal = dataActive
	s.dataMu.Unlock()

	s.reply(200, "PORT command successful")
}

// handlePASV binds a fresh passive acceptor and advertises its
// address, replacing any prior data-channel configuration.
func (s *session) handlePASV(param string) {
	s.dataMu.Lock()
	if s.pasvListener != nil {
		s.pasvListener.Close()
		s.pasvListener = nil
	}
	s.activeAddr = nil
	s.dataMu.Unlock()

	port := s.server.nextPasvPort()
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		s.reply(425, "Can't open passive connection")
		return
	}

	s.dataMu.Lock()
	s.pasvListener = ln
	s.dataModeVal = dataPassive
	s.dataMu.Unlock()

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	boundPort, _ := strconv.Atoi(portStr)
	h1, h2, h3, h4 := ipv4Octets(s.server.advertiseHost(s.conn))
	s.reply(227, fmt.Sprintf("Entering Passive Mode (%d,%d,%d,%d,%d,%d).",
		h1, h2, h3, h4, boundPort/256, boundPort%256))
}

// handleREST records the byte offset the next STOR/RETR/APPE begins
// from; the offset is cleared when that transfer command runs.
func (s *session) handleREST(param string) {
	n, err := strconv.ParseUint(strings.TrimSpace(param), 10, 64)
	if err != nil {
		s.reply(501, "Syntax error in parameters")
		return
	}
	s.restartOffset = n
	s.reply(350, "Restarting at given offset")
}

// ipv4Octets resolves a host or literal address to its four IPv4
// octets for PASV reply construction, falling back to the loopback
// address if resolution fails.
func ipv4Octets(hostOrIP string) (byte, byte, byte, byte) {
	ip := net.ParseIP(hostOrIP)
	if ip == nil {
		if ips, err := net.LookupIP(hostOrIP); err == nil {
			for _, candidate := range ips {
				if v4 := candidate.To4(); v4 != nil {
					ip = v4
					break
				}
			}
		}
	}
	v4 := ip.To4()
	if v4 == nil {
		return 127, 0, 0, 1
	}
	return v4[0], v4[1], v4[2], v4[3]
}
