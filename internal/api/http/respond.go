package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/pkg/httpx"
	"github.com/carrerakart/kartapi/pkg/slogx"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON reads and decodes a JSON request body. On failure it writes the
// 400 envelope itself and reports false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	// Trailing garbage after the document is also a bad request.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError translates service and domain errors into the envelope.
// Unknown errors are logged and masked as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateDriver):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrClassificationNotFound),
		errors.Is(err, service.ErrOperatingHourNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		domain.ErrInvalidName,
		domain.ErrInvalidEmail,
		domain.ErrInvalidPassword,
		domain.ErrInvalidRole,
		domain.ErrInvalidCategory,
		domain.ErrInvalidDriverName,
		domain.ErrInvalidPoints,
		domain.ErrInvalidGroup,
		domain.ErrInvalidSlot,
		domain.ErrInvalidLabel,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// newPagination derives the page envelope from a total row count.
func newPagination(page, limit int, total int64) httpx.Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return httpx.Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
