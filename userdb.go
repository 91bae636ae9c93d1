package ftpd

import (
	"sync"
)

// Permission is a bitmask describing what operations a user may perform.
// Bits correspond one-to-one with the FTP commands they gate.
type Permission uint16

const (
	// PermFileRead allows RETR and SIZE on files.
	PermFileRead Permission = 1 << iota
	// PermFileWrite allows STOR and STOU.
	PermFileWrite
	// PermFileAppend allows APPE, whether or not the file already exists.
	PermFileAppend
	// PermFileDelete allows DELE.
	PermFileDelete
	// PermFileRename allows RNFR/RNTO where the source is a file.
	PermFileRename
	// PermDirList allows LIST and NLST.
	PermDirList
	// PermDirCreate allows MKD.
	PermDirCreate
	// PermDirDelete allows RMD.
	PermDirDelete
	// PermDirRename allows RNFR/RNTO where the source is a directory.
	PermDirRename
)

// PermAll grants every permission bit.
const PermAll Permission = PermFileRead | PermFileWrite | PermFileAppend | PermFileDelete |
	PermFileRename | PermDirList | PermDirCreate | PermDirDelete | PermDirRename

// Has reports whether perm includes every bit set in want.
func (perm Permission) Has(want Permission) bool {
	return perm&want == want
}

// anonymousUsernames are aliases: registering either one reserves both.
var anonymousUsernames = [2]string{"anonymous", "ftp"}

func isAnonymousUsername(username string) bool {
	return username == anonymousUsernames[0] || username == anonymousUsernames[1]
}

// User is an entry in the in-memory user database (component C1).
type User struct {
	Username    string
	password    []byte
	anyPassword bool
	LocalRoot   string
	Permissions Permission
}

// validUsername enforces spec.md §3: case-sensitive, non-empty, <= 255
// bytes, no control characters.
func validUsername(username string) bool {
	if username == "" || len(username) > 255 {
		return false
	}
	for i := 0; i < len(username); i++ {
		if username[i] < 0x20 || username[i] == 0x7f {
			return false
		}
	}
	return true
}

// userDB is the in-memory, pre-start-frozen user database.
//
// The mutex only guards registration before Server.Start; spec.md §4.1
// notes the database needs no concurrent-mutation support while
// serving, so authenticate takes the read path without synchronization
// concerns beyond what the map itself requires once writes have
// stopped.
type userDB struct {
	mu    sync.RWMutex
	users map[string]*User
}

func newUserDB() *userDB {
	return &userDB{users: make(map[string]*User)}
}

// addUser inserts a new user if the username is absent and valid.
// Registering "anonymous" or "ftp" reserves both aliases.
func (db *userDB) addUser(username, password, localRoot string, perms Permission) bool {
	if !validUsername(username) || localRoot == "" {
		return false
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if isAnonymousUsername(username) {
		return db.addAnonymousLocked(localRoot, perms)
	}

	if _, exists := db.users[username]; exists {
		return false
	}
	db.users[username] = &User{
		Username:    username,
		password:    []byte(password),
		LocalRoot:   localRoot,
		Permissions: perms,
	}
	return true
}

// addAnonymous registers both "anonymous" and "ftp" as aliases that
// authenticate with any password.
func (db *userDB) addAnonymous(localRoot string, perms Permission) bool {
	if localRoot == "" {
		return false
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.addAnonymousLocked(localRoot, perms)
}

func (db *userDB) addAnonymousLocked(localRoot string, perms Permission) bool {
	for _, name := range anonymousUsernames {
		if _, exists := db.users[name]; exists {
			return false
		}
	}
	u := &User{
		Username:    anonymousUsernames[0],
		anyPassword: true,
		LocalRoot:   localRoot,
		Permissions: perms,
	}
	for _, name := range anonymousUsernames {
		alias := *u
		alias.Username = name
		db.users[name] = &alias
	}
	return true
}

// authenticate matches a case-sensitive username against an exact
// password, except for the anonymous aliases which accept any password.
func (db *userDB) authenticate(username, password string) (*User, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[username]
	if !ok {
		return nil, false
	}
	if u.anyPassword {
		return u, true
	}
	if string(u.password) == password {
		return u, true
	}
	return nil, false
}

