package api

import (
	"fmt"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
	"time"
	"zpassword/internal/metrics"
	"zpassword/pkg/report"
	"zpassword/pkg/strength"
)

// MinPasswordLength is the shortest password accepted for analysis, counted in characters
// after trimming surrounding whitespace.
const MinPasswordLength = 8

// maxCheckBody bounds check requests, a password never needs more.
const maxCheckBody = 4 << 10

type checkApi struct {
	composer *report.Composer
	metrics  *metrics.Metrics
}

func (a *checkApi) checkPassword(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	password, ok := acceptPassword(c, req.Password)
	if !ok {
		return
	}

	start := time.Now()
	r := a.composer.Compose(c, password, report.Options{Breach: req.Breach})
	a.metrics.IncrementEvaluation(r.Strategy)
	if r.Breach != nil {
		a.metrics.ObserveBreach(*r.Breach, time.Since(start))
	}

	c.JSON(http.StatusOK, r)
}

func (a *checkApi) checkBreach(c *gin.Context) {
	var req breachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	password, ok := acceptPassword(c, req.Password)
	if !ok {
		return
	}

	start := time.Now()
	result := a.composer.CheckBreach(c, password)
	a.metrics.ObserveBreach(result, time.Since(start))

	if !result.Available {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// acceptPassword trims the input and enforces the minimum length. The response is written on failure.
func acceptPassword(c *gin.Context, password string) (string, bool) {
	password = strings.TrimSpace(password)
	if strength.Length(password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("password must have at least %d characters", MinPasswordLength)})
		return "", false
	}
	return password, true
}

// limitBody caps the request body, reads past the limit fail the JSON binding.
func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func RegisterCheckApi(group *gin.RouterGroup, composer *report.Composer, m *metrics.Metrics) {
	a := &checkApi{composer: composer, metrics: m}

	group.Use(limitBody(maxCheckBody))
	group.POST("/password", a.checkPassword)
	group.POST("/breach", a.checkBreach)
}
