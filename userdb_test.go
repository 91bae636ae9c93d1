package ftpd

import "testing"

func TestUserDBAddAndAuthenticate(t *testing.T) {
	db := newUserDB()

	if !db.addUser("alice", "secret", "/srv/alice", PermAll) {
		t.Fatal("addUser failed")
	}
	if db.addUser("alice", "other", "/srv/alice2", PermAll) {
		t.Fatal("addUser should reject a duplicate username")
	}
	if db.addUser("bob", "x", "", PermAll) {
		t.Fatal("addUser should reject an empty LocalRoot")
	}

	u, ok := db.authenticate("alice", "secret")
	if !ok || u.Username != "alice" {
		t.Fatalf("authenticate(alice, secret) failed: %v %v", u, ok)
	}
	if _, ok := db.authenticate("alice", "wrong"); ok {
		t.Fatal("authenticate should reject a wrong password")
	}
	if _, ok := db.authenticate("nobody", ""); ok {
		t.Fatal("authenticate should reject an unknown user")
	}
}

func TestUserDBAnonymousAliases(t *testing.T) {
	db := newUserDB()
	if !db.addAnonymous("/srv/anon", PermFileRead) {
		t.Fatal("addAnonymous failed")
	}

	for _, name := range []string{"anonymous", "ftp"} {
		u, ok := db.authenticate(name, "anything-goes")
		if !ok {
			t.Fatalf("authenticate(%s) should accept any password", name)
		}
		if u.LocalRoot != "/srv/anon" {
			t.Fatalf("authenticate(%s) LocalRoot = %q", name, u.LocalRoot)
		}
	}

	// Registering either alias afterward is rejected: both are reserved.
	if db.addUser("ftp", "x", "/elsewhere", PermAll) {
		t.Fatal("addUser should not be able to re-register an anonymous alias")
	}
}

func TestPermissionHas(t *testing.T) {
	p := PermFileRead | PermDirList
	if !p.Has(PermFileRead) {
		t.Error("expected PermFileRead")
	}
	if p.Has(PermFileWrite) {
		t.Error("did not expect PermFileWrite")
	}
	if !p.Has(PermFileRead | PermDirList) {
		t.Error("expected both bits set")
	}
}

func TestValidUsername(t *testing.T) {
	if validUsername("") {
		t.Error("empty username should be invalid")
	}
	if !validUsername("alice") {
		t.Error("alice should be valid")
	}
	if validUsername("al\x00ice") {
		t.Error("control characters should be invalid")
	}
}
