package ftpd

// commandHandlers is the dispatch table driving session.dispatch. Every
// entry is a method expression bound at package init, avoiding any
// runtime reflection to route a command to its handler.
var commandHandlers map[string]func(*session, string)

func init() {
	commandHandlers = map[string]func(*session, string){
		"USER": (*session).handleUSER,
		"PASS": (*session).handlePASS,
		"ACCT": (*session).handleACCT,
		"REIN": (*session).handleREIN,
		"QUIT": (*session).handleQUIT,

		"PWD":  (*session).handlePWD,
		"CWD":  (*session).handleCWD,
		"CDUP": (*session).handleCDUP,
		"MKD":  (*session).handleMKD,
		"RMD":  (*session).handleRMD,
		"DELE": (*session).handleDELE,
		"RNFR": (*session).handleRNFR,
		"RNTO": (*session).handleRNTO,

		"TYPE": (*session).handleTYPE,
		"STRU": (*session).handleSTRU,
		"MODE": (*session).handleMODE,
		"PORT": (*session).handlePORT,
		"PASV": (*session).handlePASV,
		"REST": (*session).handleREST,

		"RETR": (*session).handleRETR,
		"STOR": (*session).handleSTOR,
		"APPE": (*session).handleAPPE,
		"STOU": (*session).handleSTOU,
		"LIST": (*session).handleLIST,
		"NLST": (*session).handleNLST,
		"SIZE": (*session).handleSIZE,
		"ABOR": (*session).handleABOR,

		"NOOP": (*session).handleNOOP,
		"ALLO": (*session).handleALLO,
		"SYST": (*session).handleSYST,
		"STAT": (*session).handleSTAT,
		"HELP": (*session).handleHELP,
		"SITE": (*session).handleSITE,
		"FEAT": (*session).handleFEAT,
		"OPTS": (*session).handleOPTS,

		"MDTM": (*session).handleMDTM,
		"HASH": (*session).handleHASH,
		"MLST": (*session).handleMLST,
		"MLSD": (*session).handleMLSD,
	}
}
