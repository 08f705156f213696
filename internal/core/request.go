// AngelaMos | 2026
// request.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var ErrInvalidBody = errors.New("invalid request body")

const InvalidBodyMessage = "Invalid request data"

// DecodeJSON reads a single JSON object into dst. Empty, oversized or
// malformed bodies all yield ErrInvalidBody.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrInvalidBody)
	}

	return nil
}

// QueryInt parses a positive-or-zero integer query parameter, falling back
// to def when absent or not a number.
func QueryInt(r *http.Request, key string, def int) int {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return def
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}

	return parsed
}

// PathID reads a positive int64 chi URL parameter.
func PathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
