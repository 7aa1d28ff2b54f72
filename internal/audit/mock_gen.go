package audit

//go:generate mockgen -source=./recorder.go -destination=../mocks/mock_audit_recorder.go -package=mocks
