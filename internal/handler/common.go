package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/orgaccess/internal/auth"
	"github.com/dangerclosesec/orgaccess/internal/domain"
	"github.com/dangerclosesec/orgaccess/internal/middleware"
	"github.com/go-chi/chi/v5"
	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ErrorResponse struct { // TypeGen: ErrorResponse
	BaseResponse
	Error   string    `json:"error"`
	Details *[]string `json:"details,omitempty"`
	Code    *string   `json:"error_code,omitempty"`
	Link    *string   `json:"error_link,omitempty"`
}

type BaseResponse struct { // TypeGen: DefaultResponse
	Ok bool `json:"ok"`
}

// Stable error codes returned in ErrorResponse.Code
const (
	CodeInvalidInput               = "invalid_input"
	CodeUnauthorized               = "unauthorized"
	CodePermissionDenied           = "permission_denied"
	CodeCrossOrganizationMismatch  = "cross_organization_mismatch"
	CodeEmailMismatch              = "email_mismatch"
	CodeNotFound                   = "not_found"
	CodeDomainTaken                = "domain_taken"
	CodeAlreadyMember              = "already_member"
	CodeAlreadyInOrganization      = "already_in_organization"
	CodeDuplicatePendingInvitation = "duplicate_pending_invitation"
	CodeInvalidOrExpiredInvitation = "invalid_or_expired_invitation"
	CodeConflict                   = "conflict"
	CodeEmailDeliveryFailed        = "email_delivery_failed"
	CodeInternal                   = "internal_error"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: specific not-found errors wrap domain.ErrNotFound.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, ""},
	{domain.ErrPermissionDenied, http.StatusForbidden, CodePermissionDenied, "Permission denied"},
	{domain.ErrCrossOrganizationMismatch, http.StatusForbidden, CodeCrossOrganizationMismatch, "Users are not members of this organization"},
	{domain.ErrEmailMismatch, http.StatusForbidden, CodeEmailMismatch, "Invitation was issued to a different email address"},
	{domain.ErrInvalidOrExpiredInvitation, http.StatusGone, CodeInvalidOrExpiredInvitation, "Invitation is invalid or expired"},
	{domain.ErrDomainTaken, http.StatusConflict, CodeDomainTaken, "Organization domain already taken"},
	{domain.ErrAlreadyMember, http.StatusConflict, CodeAlreadyMember, "User is already a member of this organization"},
	{domain.ErrAlreadyInOrganization, http.StatusConflict, CodeAlreadyInOrganization, "User already belongs to an organization"},
	{domain.ErrDuplicatePendingInvitation, http.StatusConflict, CodeDuplicatePendingInvitation, "A pending invitation already exists for this email"},
	{domain.ErrConflict, http.StatusConflict, CodeConflict, "The resource was modified concurrently, please retry"},
	{domain.ErrEmailDeliveryFailed, http.StatusBadGateway, CodeEmailDeliveryFailed, "Invitation email could not be delivered"},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound, ""},
}

// respondWithDomainError maps err onto its status and stable error code.
// Unrecognized errors are logged and reported as internal errors.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		respondWithCode(w, m.status, m.code, msg)
		return
	}

	slog.ErrorContext(r.Context(), "request failed", "error", err, "requestID", chmw.GetReqID(r.Context()))
	respondWithCode(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

func respondWithCode(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: message, Code: &code})
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	// Sets content type header
	w.Header().Set("Content-Type", "application/json")

	// Sets the HTTP status code
	w.WriteHeader(code)

	// Encodes the response
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// caller returns the authenticated identity, responding 401 when absent.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithCode(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
		return nil, false
	}
	return identity, true
}

// uuidParam parses the named chi URL parameter, responding 400 when malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithCode(w, http.StatusBadRequest, CodeInvalidInput, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON decodes the request body into v, responding 400 on failure.
// Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithCode(w, http.StatusBadRequest, CodeInvalidInput, "Invalid request payload")
		return false
	}
	return true
}
