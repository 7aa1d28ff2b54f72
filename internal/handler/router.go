package handler

import (
	"net/http"

	"github.com/dangerclosesec/orgaccess/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles the API handlers mounted under /api.
type Handlers struct {
	Organizations *OrganizationHandler
	Invitations   *InvitationHandler
	Members       *MemberHandler
	AuditLogs     *AuditLogHandler
}

func NewHandlers(orgs OrganizationWorkflow, invitations InvitationWorkflow, members MemberWorkflow, auditLogs AuditLogReader) *Handlers {
	return &Handlers{
		Organizations: NewOrganizationHandler(orgs),
		Invitations:   NewInvitationHandler(invitations),
		Members:       NewMemberHandler(members),
		AuditLogs:     NewAuditLogHandler(auditLogs),
	}
}

// Routes returns the /api subrouter. Every route requires a bearer token.
func (h *Handlers) Routes(authenticator middleware.Authenticator) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestMeta)
		r.Use(middleware.AuthMiddleware(authenticator))

		r.Route("/organizations", func(r chi.Router) {
			r.With(chimw.AllowContentType("application/json")).Post("/", h.Organizations.Create)

			r.Route("/{orgID}", func(r chi.Router) {
				r.Get("/", h.Organizations.Get)
				r.With(chimw.AllowContentType("application/json")).Patch("/", h.Organizations.UpdateSettings)
				r.Get("/billing", h.Organizations.Billing)
				r.Post("/analyses", h.Organizations.RecordAnalysis)
				r.Get("/audit-logs", h.AuditLogs.List)

				r.Route("/invitations", func(r chi.Router) {
					r.Get("/", h.Invitations.List)
					r.With(chimw.AllowContentType("application/json")).Post("/", h.Invitations.Create)
					r.Delete("/{invitationID}", h.Invitations.Cancel)
				})

				r.Route("/members/{userID}", func(r chi.Router) {
					r.With(chimw.AllowContentType("application/json")).Put("/role", h.Members.UpdateRole)
					r.Delete("/", h.Members.Remove)
				})
			})
		})

		r.With(chimw.AllowContentType("application/json")).Post("/invitations/accept", h.Invitations.Accept)
	})

	return r
}
