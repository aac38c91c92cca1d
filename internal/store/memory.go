package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a Store for tests and single instance runs without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int64]User
	passwords map[int64]PasswordEntry
	notes     map[int64]Note
	lastID    int64
	lastNote  int64
	now       func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]User),
		passwords: make(map[int64]PasswordEntry),
		notes:     make(map[int64]Note),
		now:       time.Now,
	}
}

func (m *MemoryStore) RegisterUser(_ context.Context, userID int64, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[userID] = User{ID: userID, Username: username}
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) SavePassword(_ context.Context, userID int64, password string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return 0, ErrNotFound
	}

	history := m.history(userID)
	for len(history) >= HistoryLimit {
		oldest := history[len(history)-1]
		m.deletePassword(oldest.ID)
		history = history[:len(history)-1]
	}

	m.lastID++
	m.passwords[m.lastID] = PasswordEntry{ID: m.lastID, UserID: userID, Password: password, CreatedAt: m.now()}
	return m.lastID, nil
}

func (m *MemoryStore) ListPasswords(_ context.Context, userID int64, page, perPage int) ([]PasswordEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return pageOf(m.history(userID), page, perPage), nil
}

func (m *MemoryStore) CountPasswords(_ context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.history(userID)), nil
}

func (m *MemoryStore) LastPasswordID(_ context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.history(userID)
	if len(history) == 0 {
		return 0, ErrNotFound
	}
	return history[0].ID, nil
}

func (m *MemoryStore) DeletePassword(_ context.Context, userID, passwordID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.passwords[passwordID]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	m.deletePassword(passwordID)
	return nil
}

func (m *MemoryStore) AddNote(_ context.Context, userID, passwordID int64, content string) (*Note, error) {
	content, err := NormalizeNote(content)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.passwords[passwordID]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}

	m.lastNote++
	n := Note{ID: m.lastNote, UserID: userID, PasswordID: passwordID, Content: content, CreatedAt: m.now()}
	m.notes[n.ID] = n
	return &n, nil
}

func (m *MemoryStore) ListNotes(_ context.Context, userID int64, page, perPage int) ([]Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]Note, 0)
	for _, n := range m.notes {
		if n.UserID == userID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID > notes[j].ID
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	return pageOf(notes, page, perPage), nil
}

func (m *MemoryStore) CountNotes(_ context.Context, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, note := range m.notes {
		if note.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetNote(_ context.Context, userID, noteID int64) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (m *MemoryStore) DeleteNote(_ context.Context, userID, noteID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[noteID]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	delete(m.notes, noteID)
	return nil
}

func (m *MemoryStore) ClearAll(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.passwords {
		if p.UserID == userID {
			m.deletePassword(id)
		}
	}
	for id, n := range m.notes {
		if n.UserID == userID {
			delete(m.notes, id)
		}
	}
	return nil
}

// history is newest first. Callers hold the lock.
func (m *MemoryStore) history(userID int64) []PasswordEntry {
	out := make([]PasswordEntry, 0)
	for _, p := range m.passwords {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// deletePassword cascades to notes like the foreign key does. Callers hold the lock.
func (m *MemoryStore) deletePassword(id int64) {
	delete(m.passwords, id)
	for nid, n := range m.notes {
		if n.PasswordID == id {
			delete(m.notes, nid)
		}
	}
}

func pageOf[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		return items
	}

	start := offset(page, perPage)
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
