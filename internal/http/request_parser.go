// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spesevoce/internal/core"
)

// maxBodyBytes bounds request bodies; a transcript is a short phrase.
const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

// transcriptRequest mirrors the speech-recognition event delivered by the
// client. Event defaults to "result".
type transcriptRequest struct {
	Event string `json:"event"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// DecodeJSONBody decodes exactly one JSON value from r into v, rejecting
// unknown fields and oversized bodies.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body larger than %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// TotalsQuery holds the filters of GET /api/totals.
type TotalsQuery struct {
	Category string
	Date     string
}

// ParseTotalsQuery reads category and date; date, when present, must be
// YYYY-MM-DD.
func ParseTotalsQuery(query url.Values) (TotalsQuery, error) {
	q := TotalsQuery{
		Category: sanitizeInput(query.Get("category")),
		Date:     strings.TrimSpace(query.Get("date")),
	}
	if q.Date != "" {
		if _, err := time.Parse(core.DateLayout, q.Date); err != nil {
			return TotalsQuery{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", q.Date)
		}
	}
	if q.Date != "" && q.Category == "" {
		return TotalsQuery{}, errors.New("date filter requires a category")
	}
	return q, nil
}

// ParseLimit reads an optional positive "limit" parameter capped at max.
// Zero means no limit.
func ParseLimit(query url.Values, max int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q: must be a positive number", v)
	}
	if n > max {
		n = max
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
