package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"art-platform/backend/models"
)

func setupTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := OpenGorm("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGormStore_FindUserNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.FindUser(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = store.FindUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound by email, got %v", err)
	}
}

func TestGormStore_CreateUserAssignsID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := models.User{Email: "artist@example.com", Password: "hash"}
	if err := store.CreateUser(ctx, &user); err != nil {
		t.Fatal(err)
	}
	if user.ID == "" {
		t.Fatal("CreateUser should assign an id")
	}

	found, err := store.FindUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if found.Email != "artist@example.com" || found.TwoFAEnabled {
		t.Errorf("Unexpected user %+v", found)
	}
}

func TestGormStore_CreateUserDuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.CreateUser(ctx, &models.User{Email: "artist@example.com"})
	err := store.CreateUser(ctx, &models.User{Email: "artist@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestGormStore_ConcurrentDuplicateRegistrations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateUser(ctx, &models.User{Email: "artist@example.com"})
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrDuplicate):
			t.Errorf("Expected ErrDuplicate for losing inserts, got %v", err)
		}
	}
	if created != 1 {
		t.Errorf("Expected exactly one user created, got %d", created)
	}
}

func TestGormStore_SaveUserDuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.CreateUser(ctx, &models.User{Email: "first@example.com"})
	second := models.User{Email: "second@example.com"}
	store.CreateUser(ctx, &second)

	second.Email = "first@example.com"
	if err := store.SaveUser(ctx, &second); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

// Clearing the secret must reach the database, not just the in-memory struct.
func TestGormStore_SaveUserPersistsClearedSecret(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	secret := "JBSWY3DPEHPK3PXP"
	user := models.User{Email: "artist@example.com", TwoFAEnabled: true, TwoFASecret: &secret}
	store.CreateUser(ctx, &user)

	user.TwoFAEnabled = false
	user.TwoFASecret = nil
	if err := store.SaveUser(ctx, &user); err != nil {
		t.Fatal(err)
	}

	found, _ := store.FindUser(ctx, user.ID)
	if found.TwoFAEnabled {
		t.Error("TwoFAEnabled should be false after save")
	}
	if found.TwoFASecret != nil {
		t.Errorf("TwoFASecret should be NULL after save, got %q", *found.TwoFASecret)
	}
}

func TestGormStore_ListDocumentsEmpty(t *testing.T) {
	store := setupTestStore(t)

	docs, err := store.ListDocuments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", docs)
	}
}

func TestGormStore_ListDocumentsInCreationOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.CreateDocument(ctx, &models.Document{Title: "Privacy Policy", URL: "/docs/privacy.pdf", CreatedAt: time.Now().Add(-time.Hour)})
	store.CreateDocument(ctx, &models.Document{Title: "Terms", URL: "/docs/terms.pdf", CreatedAt: time.Now()})

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].Title != "Privacy Policy" || docs[1].Title != "Terms" {
		t.Errorf("Unexpected order: %q, %q", docs[0].Title, docs[1].Title)
	}
}

func TestGormStore_LogEntries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice, bob := "alice", "bob"
	store.CreateLogEntry(ctx, &models.LogEntry{CreatedAt: time.Now().Add(-72 * time.Hour), Message: "old", UserID: &alice})
	store.CreateLogEntry(ctx, &models.LogEntry{CreatedAt: time.Now().Add(-time.Minute), Message: "first", UserID: &alice})
	store.CreateLogEntry(ctx, &models.LogEntry{CreatedAt: time.Now(), Message: "second", UserID: &alice})
	store.CreateLogEntry(ctx, &models.LogEntry{CreatedAt: time.Now(), Message: "other", UserID: &bob})

	entries, err := store.ListLogEntries(ctx, alice, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Message != "second" || entries[1].Message != "first" {
		t.Errorf("Expected newest two entries for alice, got %+v", entries)
	}

	deleted, err := store.DeleteLogEntriesBefore(ctx, time.Now().Add(-48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted entry, got %d", deleted)
	}
}

func TestOpenGorm_UnknownDriver(t *testing.T) {
	if _, err := OpenGorm("oracle", "x"); err == nil {
		t.Error("OpenGorm should reject unknown drivers")
	}
}
