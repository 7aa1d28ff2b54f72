package handler

import (
	"net/http"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/dangerclosesec/orgaccess/internal/service"
)

type OrganizationHandler struct {
	orgs OrganizationWorkflow
}

func NewOrganizationHandler(orgs OrganizationWorkflow) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

type OrganizationResponse struct {
	BaseResponse
	Organization *model.Organization `json:"organization"`
}

type OrganizationDetailsResponse struct {
	BaseResponse
	*service.OrganizationDetails
}

type BillingResponse struct {
	BaseResponse
	Billing *service.BillingSummary `json:"billing"`
}

type UsageResponse struct {
	BaseResponse
	Usage *model.OrganizationUsage `json:"usage"`
}

// Create handles POST /api/organizations
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var input service.CreateOrganizationInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.AdminUserID = identity.UserID

	org, err := h.orgs.CreateOrganization(r.Context(), input)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, OrganizationResponse{BaseResponse{Ok: true}, org})
}

// Get handles GET /api/organizations/{orgID} for any member.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	if _, err := h.orgs.MemberRole(r.Context(), identity.UserID, orgID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	details, err := h.orgs.GetOrganizationDetails(r.Context(), orgID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OrganizationDetailsResponse{BaseResponse{Ok: true}, details})
}

// UpdateSettings handles PATCH /api/organizations/{orgID}
func (h *OrganizationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	var update service.OrganizationSettingsUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	org, err := h.orgs.UpdateOrganizationSettings(r.Context(), orgID, update, identity.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OrganizationResponse{BaseResponse{Ok: true}, org})
}

// Billing handles GET /api/organizations/{orgID}/billing
func (h *OrganizationHandler) Billing(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	bill, err := h.orgs.GetOrganizationBilling(r.Context(), orgID, identity.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, BillingResponse{BaseResponse{Ok: true}, bill})
}

// RecordAnalysis handles POST /api/organizations/{orgID}/analyses
func (h *OrganizationHandler) RecordAnalysis(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	orgID, ok := uuidParam(w, r, "orgID")
	if !ok {
		return
	}

	usage, err := h.orgs.RecordAnalysis(r.Context(), orgID, identity.UserID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, UsageResponse{BaseResponse{Ok: true}, usage})
}
