package handler

import (
	"net/http"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/service"
)

type MemberHandler struct {
	members MemberWorkflow
}

func NewMemberHandler(members MemberWorkflow) *MemberHandler {
	return &MemberHandler{members: members}
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type MemberResponse struct {
	BaseResponse
	User *model.User `json:"user"`
}

// UpdateRole handles PUT /api/organizations/{orgID}/members/{userID}/role
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.members.UpdateUserRole(r.Context(), service.UpdateRoleInput{
		ActorID:        identity.UserID,
		TargetUserID:   userID,
		OrganizationID: orgID,
		NewRole:        req.Role,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MemberResponse{BaseResponse{Ok: true}, user})
}

// Remove handles DELETE /api/organizations/{orgID}/members/{userID}
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	err := h.members.RemoveUser(r.Context(), service.RemoveUserInput{
		ActorID:        identity.UserID,
		TargetUserID:   userID,
		OrganizationID: orgID,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}
