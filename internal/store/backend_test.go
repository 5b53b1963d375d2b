package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dan/aero/internal/db"
	"github.com/dan/aero/internal/models"
)

func testStore(t *testing.T) *BackendStore {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewBackendStore(database.Conn)
}

func testBackend(name string) *models.Backend {
	return &models.Backend{
		ID:               uuid.NewString(),
		Name:             name,
		BaseURL:          "http://api.example.com",
		ExplorerProvider: "solana.com",
		ExplorerCluster:  "devnet",
		Enabled:          true,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := testStore(t)
	b := testBackend("airq-prod")
	if err := s.Create(b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Name != "airq-prod" || got.BaseURL != b.BaseURL {
		t.Fatalf("GetByID = %+v", got)
	}

	got, err = s.GetByName("airq-prod")
	if err != nil || got == nil || got.ID != b.ID {
		t.Fatalf("GetByName = %+v (%v)", got, err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := testStore(t)
	got, err := s.GetByID("nope")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v for a missing id", got)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	s := testStore(t)
	if err := s.Create(testBackend("dup")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create(testBackend("dup"))
	if err == nil {
		t.Fatal("duplicate name accepted")
	}
}

func TestActivePrefersOldestEnabled(t *testing.T) {
	s := testStore(t)

	first := testBackend("first")
	if err := s.Create(first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // distinct created_at for ordering
	second := testBackend("second")
	if err := s.Create(second); err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, err := s.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active == nil || active.Name != "first" {
		t.Fatalf("Active = %+v, want the oldest enabled profile", active)
	}

	if err := s.SetEnabled(first.ID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	active, err = s.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active == nil || active.Name != "second" {
		t.Fatalf("Active = %+v after disabling first, want second", active)
	}
}

func TestActiveNoneEnabled(t *testing.T) {
	s := testStore(t)
	b := testBackend("off")
	b.Enabled = false
	if err := s.Create(b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, err := s.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active != nil {
		t.Fatalf("Active = %+v, want nil", active)
	}
}

func TestUpdate(t *testing.T) {
	s := testStore(t)
	b := testBackend("edit-me")
	if err := s.Create(b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b.Name = "edited"
	b.BaseURL = "http://other.example.com"
	b.ExplorerCluster = "mainnet-beta"
	if err := s.Update(b); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.GetByID(b.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %+v (%v)", got, err)
	}
	if got.Name != "edited" || got.BaseURL != "http://other.example.com" || got.ExplorerCluster != "mainnet-beta" {
		t.Fatalf("update not persisted: %+v", got)
	}

	missing := testBackend("ghost")
	if err := s.Update(missing); err == nil {
		t.Fatal("Update of a missing backend succeeded")
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	b := testBackend("rm")
	if err := s.Create(b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.GetByID(b.ID); got != nil {
		t.Fatalf("backend still present after delete: %+v", got)
	}
	if err := s.Delete(b.ID); err == nil {
		t.Fatal("second delete succeeded")
	}
}

func TestRecordCheckResult(t *testing.T) {
	s := testStore(t)
	b := testBackend("health")
	if err := s.Create(b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.RecordCheckResult("health", false, "connection refused", 3); err != nil {
		t.Fatalf("RecordCheckResult: %v", err)
	}

	got, err := s.GetByName("health")
	if err != nil || got == nil {
		t.Fatalf("GetByName: %+v (%v)", got, err)
	}
	if got.LastCheckOK || got.LastCheckErr != "connection refused" || got.ConsecFails != 3 {
		t.Fatalf("check result not persisted: %+v", got)
	}
	if got.LastCheckAt.IsZero() {
		t.Error("LastCheckAt not recorded")
	}
}

func TestCount(t *testing.T) {
	s := testStore(t)
	if n, err := s.Count(); err != nil || n != 0 {
		t.Fatalf("Count = %d (%v), want 0", n, err)
	}
	if err := s.Create(testBackend("one")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n, err := s.Count(); err != nil || n != 1 {
		t.Fatalf("Count = %d (%v), want 1", n, err)
	}
}
