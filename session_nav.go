package ftpd

// handlePWD reports the session's current virtual working directory.
func (s *session) handlePWD(param string) {
	s.reply(257, quoteFTPPath(s.workingDir))
}

// handleCWD changes the working directory if the resolved path exists
// and is a directory under the user's root.
func (s *session) handleCWD(param string) {
	target := toAbsoluteFTP(s.workingDir, param)
	st, err := s.fs.stat(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	if st.Kind != KindDir {
		s.replyError(&FsError{Kind: FsNotADirectory, Path: target}, false)
		return
	}
	s.workingDir = target
	s.reply(250, "Directory successfully changed")
}

// handleCDUP is CWD with "..".
func (s *session) handleCDUP(param string) {
	s.handleCWD("..")
}

// handleMKD creates a directory, requiring DirCreate.
func (s *session) handleMKD(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("MKD", target, PermDirCreate) {
		return
	}
	if err := s.fs.makeDir(target); err != nil {
		s.replyError(err, false)
		return
	}
	s.replyLines(257, quoteFTPPath(target)+" created")
}

// handleRMD removes an empty directory, requiring DirDelete.
func (s *session) handleRMD(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("RMD", target, PermDirDelete) {
		return
	}
	if err := s.fs.removeDir(target); err != nil {
		s.replyError(err, false)
		return
	}
	s.reply(250, "Directory removed")
}

// handleDELE removes a file, requiring FileDelete.
func (s *session) handleDELE(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	if !s.requirePermission("DELE", target, PermFileDelete) {
		return
	}
	if err := s.fs.removeFile(target); err != nil {
		s.replyError(err, false)
		return
	}
	s.reply(250, "File deleted")
}

// handleRNFR stores the rename source if it exists and the user holds
// the rename permission matching its kind.
func (s *session) handleRNFR(param string) {
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	target := toAbsoluteFTP(s.workingDir, param)
	st, err := s.fs.stat(target)
	if err != nil {
		s.replyError(err, false)
		return
	}
	want := PermFileRename
	if st.Kind == KindDir {
		want = PermDirRename
	}
	if !s.requirePermission("RNFR", target, want) {
		return
	}
	s.renameFrom = target
	s.reply(350, "Ready for RNTO")
}

// handleRNTO performs the rename recorded by a prior RNFR.
func (s *session) handleRNTO(param string) {
	from := s.renameFrom
	s.renameFrom = ""
	if from == "" {
		s.reply(503, "Bad sequence of commands")
		return
	}
	if param == "" {
		s.reply(501, "Syntax error in parameters")
		return
	}
	to := toAbsoluteFTP(s.workingDir, param)
	if err := s.fs.rename(from, to); err != nil {
		s.replyError(err, false)
		return
	}
	s.reply(250, "Rename successful")
}
