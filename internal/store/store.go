// Package store keeps users, their generated password history and notes attached to
// passwords. Passwords are stored in clear text, as the service has always done.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// HistoryLimit is the number of passwords kept per user, older ones are trimmed on save.
	HistoryLimit     = 1000
	PasswordsPerPage = 15
	NotesPerPage     = 8
	MaxNoteLength    = 255
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyNote = errors.New("note content is empty")
)

type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
}

type PasswordEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	PasswordID int64     `json:"password_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store interface {
	// RegisterUser creates the user or updates the username.
	RegisterUser(ctx context.Context, userID int64, username string) error
	GetUser(ctx context.Context, userID int64) (*User, error)

	// SavePassword appends to the user's history and trims it to HistoryLimit.
	SavePassword(ctx context.Context, userID int64, password string) (int64, error)
	// ListPasswords returns a page of the history, newest first. Pages start at 1.
	ListPasswords(ctx context.Context, userID int64, page, perPage int) ([]PasswordEntry, error)
	CountPasswords(ctx context.Context, userID int64) (int, error)
	LastPasswordID(ctx context.Context, userID int64) (int64, error)
	// DeletePassword removes the password and its notes.
	DeletePassword(ctx context.Context, userID, passwordID int64) error

	AddNote(ctx context.Context, userID, passwordID int64, content string) (*Note, error)
	ListNotes(ctx context.Context, userID int64, page, perPage int) ([]Note, error)
	CountNotes(ctx context.Context, userID int64) (int, error)
	GetNote(ctx context.Context, userID, noteID int64) (*Note, error)
	DeleteNote(ctx context.Context, userID, noteID int64) error

	// ClearAll drops the user's passwords and notes, the user stays registered.
	ClearAll(ctx context.Context, userID int64) error
}

// NormalizeNote trims the content and truncates it to MaxNoteLength runes.
func NormalizeNote(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyNote
	}

	if utf8.RuneCountInString(content) > MaxNoteLength {
		content = strings.TrimSpace(string([]rune(content)[:MaxNoteLength]))
	}
	return content, nil
}

// TotalPages is never below 1 so an empty history still renders one page.
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
