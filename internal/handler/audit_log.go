package handler

import (
	"net/http"
	"strconv"

	"github.com/dangerclosesec/orgaccess/internal/service"
)

// AuditLogHandler handles API requests related to the organization audit trail
type AuditLogHandler struct {
	auditLogs AuditLogReader
}

// NewAuditLogHandler creates a new audit log handler
func NewAuditLogHandler(auditLogs AuditLogReader) *AuditLogHandler {
	return &AuditLogHandler{auditLogs: auditLogs}
}

type AuditLogResponse struct {
	BaseResponse
	*service.AuditLogPage
}

// List handles GET /api/organizations/{orgID}/audit-logs
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	q := service.AuditLogQuery{
		ActorID:        identity.UserID,
		OrganizationID: orgID,
		Action:         r.URL.Query().Get("action"),
	}

	// Pagination
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err == nil && page > 0 {
			q.Page = page
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err == nil && limit > 0 {
			q.Limit = limit
		}
	}

	page, err := h.auditLogs.GetAuditLogs(r.Context(), q)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AuditLogResponse{BaseResponse{Ok: true}, page})
}
