// Command ftpd-example starts a local FTP server for manual testing,
// serving a scratch directory under os.TempDir.
package main

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-ftpd/ftpd"
)

func main() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)

	rootPath := filepath.Join(os.TempDir(), "ftpd-example")
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		log.Fatalf("failed to create root directory: %v", err)
	}
	_ = os.WriteFile(filepath.Join(rootPath, "hello.txt"), []byte("Hello, FTP World!\n"), 0644)
	log.Printf("serving files from: %s", rootPath)

	srv, err := ftpd.NewServer("", 2121,
		ftpd.WithLogger(logger),
		ftpd.WithServerName("ftpd-example"),
		ftpd.WithWelcomeMessage("Welcome to ftpd-example"),
		ftpd.WithMaxConnectionsPerIP(8),
		ftpd.WithPasvPortRange(30000, 30100),
	)
	if err != nil {
		log.Fatal(err)
	}

	srv.AddUser("user", "pass", rootPath, ftpd.PermAll)
	srv.AddAnonymous(rootPath, ftpd.PermFileRead|ftpd.PermDirList)

	srv.SetCommandCallback(func(cmd, param string, code int, text string) {
		log.Printf("%s %s -> %d %s", cmd, param, code, text)
	})

	log.Println("starting FTP server on :2121")
	log.Println("  user 'user'/'pass' has full permissions")
	log.Println("  user 'anonymous' is read-only")

	if !srv.Start(8) {
		log.Fatal("failed to start server")
	}
	select {}
}
