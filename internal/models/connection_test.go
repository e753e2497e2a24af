package models

import "testing"

func TestConnectionBaseURL(t *testing.T) {
	conn := &Connection{
		Scheme:     "https",
		Host:       "devops.example.com",
		Port:       8443,
		Collection: "/DefaultCollection/",
	}
	want := "https://devops.example.com:8443/DefaultCollection"
	if got := conn.BaseURL(); got != want {
		t.Errorf("BaseURL() = %q, want %q", got, want)
	}
}

func TestConnectionStoreCRUD(t *testing.T) {
	store := NewConnectionStore()

	conn := &Connection{Name: "src", Role: "source", Host: "a"}
	store.Create(conn)
	if conn.ID == "" {
		t.Fatal("Create should assign an id")
	}

	if got := store.Get(conn.ID); got == nil || got.Name != "src" {
		t.Errorf("Get = %+v", got)
	}
	if got := store.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %+v, want nil", got)
	}

	updated := &Connection{ID: conn.ID, Name: "renamed", Role: "target", Host: "b"}
	if !store.Update(updated) {
		t.Error("Update of existing connection should succeed")
	}
	if got := store.Get(conn.ID); got.Name != "renamed" {
		t.Errorf("after update, Name = %q", got.Name)
	}
	if store.Update(&Connection{ID: "missing"}) {
		t.Error("Update of unknown id should fail")
	}

	if !store.Delete(conn.ID) {
		t.Error("Delete of existing connection should succeed")
	}
	if store.Delete(conn.ID) {
		t.Error("second Delete should fail")
	}
}

func TestConnectionStoreByRole(t *testing.T) {
	store := NewConnectionStore()
	store.Create(&Connection{Name: "src", Role: "source"})
	store.Create(&Connection{Name: "tgt", Role: "target"})

	if got := store.ByRole("target"); got == nil || got.Name != "tgt" {
		t.Errorf("ByRole(target) = %+v", got)
	}
	if got := store.ByRole("other"); got != nil {
		t.Errorf("ByRole(other) = %+v, want nil", got)
	}
}

func TestConnectionStoreSetHealth(t *testing.T) {
	store := NewConnectionStore()
	conn := &Connection{Name: "src"}
	store.Create(conn)

	store.SetHealth(conn.ID, "ok", "", "error", "bad token")
	got := store.Get(conn.ID)
	if got.PingStatus != "ok" || got.AuthStatus != "error" || got.AuthError != "bad token" {
		t.Errorf("after SetHealth = %+v", got)
	}

	// Unknown id is a no-op
	store.SetHealth("missing", "ok", "", "ok", "")
}
