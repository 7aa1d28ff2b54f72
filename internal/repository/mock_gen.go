// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./user.go -destination=../mocks/mock_user_repository.go -package=mocks UserRepositoryIface
//go:generate mockgen -source=./organization.go -destination=../mocks/mock_organization_repository.go -package=mocks OrganizationRepositoryIface
//go:generate mockgen -source=./invitation.go -destination=../mocks/mock_invitation_repository.go -package=mocks InvitationRepositoryIface
//go:generate mockgen -source=./audit_log.go -destination=../mocks/mock_audit_log_repository.go -package=mocks AuditLogRepositoryIface
//go:generate mockgen -source=./analysis.go -destination=../mocks/mock_analysis_repository.go -package=mocks AnalysisRepositoryIface
