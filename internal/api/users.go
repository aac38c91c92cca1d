// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"net/http"
	"strconv"
	"zpassword/internal/metrics"
	"zpassword/internal/store"
	"zpassword/pkg/generator"
)

type userApi struct {
	store   store.Store
	metrics *metrics.Metrics
}

func (u *userApi) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := u.store.RegisterUser(c, req.UserID, req.Username); err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, store.User{ID: req.UserID, Username: req.Username})
}

func (u *userApi) generate(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !generator.Allowed(req.Length) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("length must be one of %v", generator.AllowedLengths)})
		return
	}

	password, err := generator.Generate(req.Length)
	if err != nil {
		internalError(c, err)
		return
	}

	id, err := u.store.SavePassword(c, userID, password)
	if err != nil {
		storeError(c, err)
		return
	}

	u.metrics.IncrementGenerated(strconv.Itoa(req.Length))
	c.JSON(http.StatusCreated, generateResponse{ID: id, Password: password, Length: req.Length})
}

func (u *userApi) listPasswords(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	page, ok := pageParam(c)
	if !ok {
		return
	}

	total, err := u.store.CountPasswords(c, userID)
	if err != nil {
		internalError(c, err)
		return
	}

	passwords, err := u.store.ListPasswords(c, userID, page, store.PasswordsPerPage)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, passwordPage{
		Page:       page,
		TotalPages: store.TotalPages(total, store.PasswordsPerPage),
		Total:      total,
		Passwords:  passwords,
	})
}

func (u *userApi) deletePassword(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := u.store.DeletePassword(c, userID, id); err != nil {
		storeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (u *userApi) clear(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	if err := u.store.ClearAll(c, userID); err != nil {
		internalError(c, err)
		return
	}

	log.Info().Msgf("cleared history of user %d", userID)
	c.Status(http.StatusNoContent)
}

func (u *userApi) addNote(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passwordID := req.PasswordID
	if passwordID == 0 {
		last, err := u.store.LastPasswordID(c, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "generate a password first"})
				return
			}
			internalError(c, err)
			return
		}
		passwordID = last
	}

	note, err := u.store.AddNote(c, userID, passwordID, req.Content)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

func (u *userApi) listNotes(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	page, ok := pageParam(c)
	if !ok {
		return
	}

	total, err := u.store.CountNotes(c, userID)
	if err != nil {
		internalError(c, err)
		return
	}

	notes, err := u.store.ListNotes(c, userID, page, store.NotesPerPage)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, notePage{
		Page:       page,
		TotalPages: store.TotalPages(total, store.NotesPerPage),
		Total:      total,
		Notes:      notes,
	})
}

func (u *userApi) getNote(c *gin.Context) {
	note, ok := u.note(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, note)
}

func (u *userApi) exportNote(c *gin.Context) {
	note, ok := u.note(c)
	if !ok {
		return
	}

	body := fmt.Sprintf("ID: %d\nPassword ID: %d\nContent:\n%s", note.ID, note.PasswordID, note.Content)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=note_%d.txt", note.ID))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

func (u *userApi) deleteNote(c *gin.Context) {
	userID, ok := u.user(c)
	if !ok {
		return
	}

	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := u.store.DeleteNote(c, userID, id); err != nil {
		storeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (u *userApi) note(c *gin.Context) (*store.Note, bool) {
	userID, ok := u.user(c)
	if !ok {
		return nil, false
	}

	id, ok := idParam(c)
	if !ok {
		return nil, false
	}

	note, err := u.store.GetNote(c, userID, id)
	if err != nil {
		storeError(c, err)
		return nil, false
	}
	return note, true
}

// user resolves the :user path parameter to a registered user. The response is written on failure.
func (u *userApi) user(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}

	if _, err = u.store.GetUser(c, id); err != nil {
		storeError(c, err)
		return 0, false
	}
	return id, true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pageParam(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return 0, false
	}
	return page, true
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrEmptyNote):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, err)
	}
}

func internalError(c *gin.Context, err error) {
	log.Error().Err(err).Msgf("error handling %s %s", c.Request.Method, c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func RegisterUserApi(group *gin.RouterGroup, s store.Store, m *metrics.Metrics) {
	u := &userApi{store: s, metrics: m}

	group.POST("", u.register)
	group.DELETE("/:user", u.clear)
	group.POST("/:user/passwords", u.generate)
	group.GET("/:user/passwords", u.listPasswords)
	group.DELETE("/:user/passwords/:id", u.deletePassword)
	group.POST("/:user/notes", u.addNote)
	group.GET("/:user/notes", u.listNotes)
	group.GET("/:user/notes/:id", u.getNote)
	group.DELETE("/:user/notes/:id", u.deleteNote)
	group.GET("/:user/notes/:id/export", u.exportNote)
}
