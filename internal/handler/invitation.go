package handler

import (
	"net/http"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/service"
)

type InvitationHandler struct {
	invitations InvitationWorkflow
}

func NewInvitationHandler(invitations InvitationWorkflow) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type InvitationResponse struct {
	BaseResponse
	Invitation *model.Invitation `json:"invitation"`
}

type InvitationListResponse struct {
	BaseResponse
	Invitations []*model.Invitation `json:"invitations"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

type AcceptInvitationResponse struct {
	BaseResponse
	*service.AcceptInvitationResult
}

// List handles GET /api/organizations/{orgID}/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	invs, err := h.invitations.ListInvitations(r.Context(), identity.UserID, orgID, r.URL.Query().Get("status"))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, InvitationListResponse{BaseResponse{Ok: true}, invs})
}

// Create handles POST /api/organizations/{orgID}/invitations
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	var input service.InviteInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.InviterID = identity.UserID
	input.OrganizationID = orgID

	inv, err := h.invitations.InviteUser(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, InvitationResponse{BaseResponse{Ok: true}, inv})
}

// Cancel handles DELETE /api/organizations/{orgID}/invitations/{invitationID}
func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}
	invitationID, ok := uuidParam(w, r, "invitationID")
	if !ok {
		return
	}

	inv, err := h.invitations.CancelInvitation(r.Context(), service.CancelInvitationInput{
		ActorID:        identity.UserID,
		OrganizationID: orgID,
		InvitationID:   invitationID,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, InvitationResponse{BaseResponse{Ok: true}, inv})
}

// Accept handles POST /api/invitations/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req AcceptInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.invitations.AcceptInvitation(r.Context(), req.Token, identity.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, AcceptInvitationResponse{BaseResponse{Ok: true}, res})
}
