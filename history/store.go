package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/serisow/ailab/lab_type"
)

// maxSessions caps the history list; saving beyond it evicts the least
// recently updated sessions.
const maxSessions = 50

const sessionPrefix = "session:"

var ErrSessionNotFound = errors.New("chat session not found")

// Store persists chat sessions in an embedded key-value store. It is
// the server-side stand-in for per-browser local storage: one logical
// collection, no sync, no encryption.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes a session, stamping identity and timestamps, then evicts
// the oldest-updated sessions beyond the cap.
func (s *Store) Save(session *lab_type.ChatSession) error {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionPrefix+session.ID), value)
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return s.evictBeyondCap()
}

func (s *Store) Get(id string) (*lab_type.ChatSession, error) {
	var session lab_type.ChatSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// List returns all sessions ordered by descending update time.
func (s *Store) List() ([]lab_type.ChatSession, error) {
	var sessions []lab_type.ChatSession
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var session lab_type.ChatSession
				if err := json.Unmarshal(val, &session); err != nil {
					return err
				}
				sessions = append(sessions, session)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (s *Store) Delete(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) evictBeyondCap() error {
	sessions, err := s.List()
	if err != nil {
		return err
	}
	if len(sessions) <= maxSessions {
		return nil
	}

	for _, stale := range sessions[maxSessions:] {
		if err := s.Delete(stale.ID); err != nil {
			return err
		}
		s.logger.Info("Evicted stale chat session",
			slog.String("session_id", stale.ID),
			slog.Time("updated_at", stale.UpdatedAt))
	}
	return nil
}
