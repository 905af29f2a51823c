package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"betmetrics/internal/core"
)

const sessionCookieName = "bm_session"

// parseTimeBound parses a struck-time filter bound from a form value.
// Accepts the browser's datetime-local format and a bare date. A bare
// date used as an end bound expands to the end of that day so the bound
// stays inclusive. Empty input means an open bound.
func parseTimeBound(value string, end bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", value)
	}
	if end {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// parseFilter builds a record filter from submitted form values. The
// form must already be parsed.
func parseFilter(r *http.Request) (core.Filter, error) {
	f := core.Filter{
		Markets:    cleanValues(r.Form["markets"]),
		Selections: cleanValues(r.Form["selections"]),
	}

	from, err := parseTimeBound(r.Form.Get("from"), false)
	if err != nil {
		return core.Filter{}, err
	}
	to, err := parseTimeBound(r.Form.Get("to"), true)
	if err != nil {
		return core.Filter{}, err
	}
	f.From, f.To = from, to
	return f, nil
}

// cleanValues sanitizes multi-select form values, dropping empties.
func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// formatPounds formats pence as a Sterling currency string (e.g., "£12.34").
func formatPounds(pence int64) string {
	neg := pence < 0
	if neg {
		pence = -pence
	}
	pounds := pence / 100
	rem := pence % 100
	s := strconv.FormatInt(pounds, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-£" + s
	}
	return "£" + s
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// setSessionCookie attaches the session ID to the response.
func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
