package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
)

// UserIDHeader carries the acting user when authentication is disabled.
const UserIDHeader = "X-User-ID"

var errInvalidBody = errors.New("invalid request body")

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status code and writes it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(message)
	}
	writeError(w, status, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInconsistentLedger):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrInvalidLine),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidAccountCode),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidAccountType),
		errors.Is(err, domain.ErrInvalidReason),
		errors.Is(err, domain.ErrMissingUser),
		errors.Is(err, domain.ErrMissingTransaction),
		errors.Is(err, domain.ErrUnknownTransactionType),
		errors.Is(err, domain.ErrInactiveAccount),
		errors.Is(err, dto.ErrValidationFailed),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v and validates it.
// An empty body leaves v at its zero value.
func decodeJSON(r *http.Request, v any) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: %w", errInvalidBody, err)
			}
		}
	}
	return dto.Validate(v)
}

// resolveUserID picks the acting user: the authenticated caller first, then
// the body field, then the X-User-ID header.
func resolveUserID(r *http.Request, bodyUserID string) (string, error) {
	if user, ok := domain.UserFromContext(r.Context()); ok && user.ID != "" {
		return user.ID, nil
	}
	if id := strings.TrimSpace(bodyUserID); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id, nil
	}
	return "", domain.ErrMissingUser
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseAsOf reads an optional as_of query parameter. A bare date covers the
// whole day.
func parseAsOf(r *http.Request) (*time.Time, error) {
	val := r.URL.Query().Get("as_of")
	if val == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}

	day, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return nil, fmt.Errorf("%w: as_of must be RFC3339 or YYYY-MM-DD", dto.ErrValidationFailed)
	}
	end := day.Add(24*time.Hour - time.Nanosecond)
	return &end, nil
}
