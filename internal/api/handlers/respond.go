package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/campus/internal/api/middleware"
	"github.com/Togather-Foundation/campus/internal/api/problem"
	"github.com/Togather-Foundation/campus/internal/domain"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a single JSON document into dst. An empty body is a
// validation error, as is trailing content after the document.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.Validation("body", "request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if middleware.IsBodyTooLarge(err) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return domain.Validation("body", "request body is required")
		}
		return domain.Validation("body", "request body must be valid JSON")
	}
	if dec.More() {
		return domain.Validation("body", "request body must contain a single JSON object")
	}
	return nil
}

// writeError renders err as a problem response. Oversized bodies get 413; all
// other errors go through the domain mapping.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	if middleware.IsBodyTooLarge(err) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypePayloadTooLarge, "Payload too large", err, env,
			problem.WithDetail("request body exceeds the size limit"))
		return
	}
	problem.FromError(w, r, err, env)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(pathParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("id", "id must be a positive integer")
	}
	return id, nil
}
