// Package handlers holds the thin HTTP layer: decode, validate, call a service, encode.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/foodloop/donation-engine/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// decodeJSON decodes a request body into dst and validates it
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return utils.ValidateStruct(dst)
}

// pathUUID parses a UUID chi URL parameter
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return utils.ParseUUID(chi.URLParam(r, name), name)
}

// queryFloat returns the named query parameter, or def when absent
func queryFloat(r *http.Request, name string, def float64) (float64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false, utils.NewFieldError(name, fmt.Sprintf("%s must be a number", name))
	}
	return v, true, nil
}

// queryInt returns the named query parameter, or def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.NewFieldError(name, fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

// queryBool returns the named query parameter, or def when absent
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, utils.NewFieldError(name, fmt.Sprintf("%s must be true or false", name))
	}
	return v, nil
}

// queryList splits a comma-separated query parameter, dropping empty entries
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(name), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
