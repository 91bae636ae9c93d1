// Package ftpd implements an embeddable FTP server core: a
// per-connection session state machine, a bounded worker pool, an
// in-memory user database, and a jailed filesystem adapter.
//
// A host application constructs a Server with NewServer, registers
// users with AddUser/AddAnonymous, and calls Start to begin serving.
// The core speaks RFC 959 plus REST, SIZE, and the RFC 3659 extensions
// MDTM, MLST/MLSD, and HASH. TLS, EPSV/EPRT, and CLI/config loading are
// left to the embedding application.
package ftpd
