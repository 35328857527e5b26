// Package handlers holds the HTTP handlers. Pages answer HTML, or JSON when
// the client asks for it in the Accept header.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/access"
	"github.com/diewo77/festakit/internal/services"
	"github.com/diewo77/festakit/internal/tracing"
	"github.com/diewo77/festakit/view"
)

// AccessChecker reports whether the current user may use paid features.
type AccessChecker interface {
	Allowed(ctx context.Context) bool
}

// Authorizer checks the current user against a loaded resource.
type Authorizer interface {
	Authorize(ctx context.Context, action access.Action, resourceType string, resource any) error
}

func currentUser(r *http.Request) uint {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseDecimal accepts "1234.5", "1234,5" and "1.234,50". Blank or invalid
// input is zero.
func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func logError(r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	tracing.NoticeError(r, err)
}

// serverError logs err and answers 500 in the client's format.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, err)
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	http.NotFound(w, r)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// authorized answers 404 when the current user may not act on resource.
// Records of other operators are reported as missing.
func authorized(w http.ResponseWriter, r *http.Request, authz Authorizer, action access.Action, resourceType string, resource any) bool {
	if err := authz.Authorize(r.Context(), action, resourceType, resource); err != nil {
		notFound(w, r)
		return false
	}
	return true
}

// errorMessage returns the text shown to the user for a service error.
func errorMessage(err error) string {
	if ve, ok := services.IsValidation(err); ok {
		return ve.Message
	}
	var pe *services.PersistenceError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}

func validationDetails(err error) any {
	if ve, ok := services.IsValidation(err); ok && !ve.Violations.Empty() {
		return ve.Violations
	}
	return nil
}
