package history

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/serisow/ailab/lab_type"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetSession(t *testing.T) {
	store := openTestStore(t)

	session := &lab_type.ChatSession{
		Title: "First chat",
		Messages: []lab_type.ChatMessage{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
		},
	}
	if err := store.Save(session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected Save to assign an id")
	}
	if session.CreatedAt.IsZero() || session.UpdatedAt.IsZero() {
		t.Error("expected Save to stamp timestamps")
	}

	loaded, err := store.Get(session.ID)
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	if loaded.Title != "First chat" {
		t.Errorf("expected title 'First chat', got %q", loaded.Title)
	}
	if len(loaded.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(loaded.Messages))
	}
}

func TestGetMissingSession(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("no-such-id")
	if err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListOrdersByUpdateTime(t *testing.T) {
	store := openTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		session := &lab_type.ChatSession{Title: fmt.Sprintf("chat %d", i)}
		if err := store.Save(session); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		ids = append(ids, session.ID)
		time.Sleep(5 * time.Millisecond)
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	// Most recently updated first.
	if sessions[0].ID != ids[2] || sessions[2].ID != ids[0] {
		t.Error("expected sessions ordered by descending update time")
	}
}

func TestDeleteSession(t *testing.T) {
	store := openTestStore(t)

	session := &lab_type.ChatSession{Title: "doomed"}
	if err := store.Save(session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	if err := store.Delete(session.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}
	if _, err := store.Get(session.ID); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestCapEvictsOldestSessions(t *testing.T) {
	store := openTestStore(t)

	var first *lab_type.ChatSession
	for i := 0; i < maxSessions+5; i++ {
		session := &lab_type.ChatSession{Title: fmt.Sprintf("chat %d", i)}
		if err := store.Save(session); err != nil {
			t.Fatalf("failed to save session %d: %v", i, err)
		}
		if i == 0 {
			first = session
		}
		time.Sleep(2 * time.Millisecond)
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != maxSessions {
		t.Errorf("expected list capped at %d sessions, got %d", maxSessions, len(sessions))
	}

	if _, err := store.Get(first.ID); err != ErrSessionNotFound {
		t.Errorf("expected the oldest session to be evicted, got %v", err)
	}
}
