package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"taskcal/internal/apperr"
	"taskcal/internal/middleware"
	"taskcal/internal/models"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation: http.StatusBadRequest,
	apperr.KindFormat:     http.StatusBadRequest,
	apperr.KindAuth:       http.StatusUnauthorized,
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindTransient:  http.StatusServiceUnavailable,
}

func respondError(c *gin.Context, tag string, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	log.Printf("[%s][err] status=%d kind=%s: %v", tag, status, kind, err)
	c.JSON(status, ErrorResponse{
		Error:     apperr.Message(err),
		Kind:      string(kind),
		Retryable: kind == apperr.KindTransient,
	})
}

func badRequest(c *gin.Context, tag string, err error) {
	respondError(c, tag, apperr.Validation("%s", err.Error()))
}

func getSession(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(middleware.CtxSession)
	if !ok {
		return models.Session{}, false
	}
	sess, ok := v.(models.Session)
	return sess, ok && sess.UserID > 0
}

// mustSession aborts with 401 when the auth middleware did not run.
func mustSession(c *gin.Context, tag string) (models.Session, bool) {
	sess, ok := getSession(c)
	if !ok {
		respondError(c, tag, apperr.Auth("not signed in"))
	}
	return sess, ok
}

func parseID(c *gin.Context, tag string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, tag, apperr.Validation("invalid id"))
		return 0, false
	}
	return id, true
}

// parseClock accepts "15:04" and "15:04:05".
func parseClock(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, apperr.Validation("invalid time %q (HH:MM)", s)
}

func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, apperr.Validation("invalid date %q (YYYY-MM-DD)", s)
	}
	return d, nil
}

func parseCategory(s string) (models.Category, error) {
	cat, ok := models.ParseCategory(s)
	if !ok {
		return "", apperr.Validation("unknown category %q", s)
	}
	return cat, nil
}

// parseRangeFilter reads ?category=&from=YYYY-MM-DD&to=YYYY-MM-DD; to is inclusive.
func parseRangeFilter(c *gin.Context) (models.TaskFilter, error) {
	var filter models.TaskFilter
	if v, ok := c.GetQuery("category"); ok && v != "" {
		cat, err := parseCategory(v)
		if err != nil {
			return filter, err
		}
		filter.Category = &cat
	}
	if v, ok := c.GetQuery("from"); ok && v != "" {
		d, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &d
	}
	if v, ok := c.GetQuery("to"); ok && v != "" {
		d, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &d
	}
	return filter, nil
}
