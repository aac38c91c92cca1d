package api

import (
	"zpassword/internal/store"
)

type registerRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username" binding:"max=32"`
}

type generateRequest struct {
	Length int `json:"length" binding:"required"`
}

type generateResponse struct {
	ID       int64  `json:"id"`
	Password string `json:"password"`
	Length   int    `json:"length"`
}

type passwordPage struct {
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
	Total      int                   `json:"total"`
	Passwords  []store.PasswordEntry `json:"passwords"`
}

type noteRequest struct {
	// Defaults to the last generated password.
	PasswordID int64  `json:"password_id"`
	Content    string `json:"content" binding:"required"`
}

type notePage struct {
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	Total      int          `json:"total"`
	Notes      []store.Note `json:"notes"`
}

type checkRequest struct {
	Password string `json:"password" binding:"required"`
	Breach   bool   `json:"breach"`
}

type breachRequest struct {
	Password string `json:"password" binding:"required"`
}
