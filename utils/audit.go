package utils

import "go.uber.org/zap"

// Audit event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)

// AuditAuth records an authentication attempt (register, login, refresh,
// logout). reason is empty on success.
func AuditAuth(event, username string, userID uint, outcome, reason string) {
	if Audit == nil {
		return
	}
	Audit.Info("auth_event",
		zap.String("event", event),
		zap.String("username", username),
		zap.Uint("actor_id", userID),
		zap.String("outcome", outcome),
		zap.String("reason", reason),
	)
}

// AuditCRUD records a create/update/delete on a resource, including denied
// attempts. Read-only operations go through the request logger only.
func AuditCRUD(op, resource string, resourceID, actorID uint, outcome, reason string) {
	if Audit == nil {
		return
	}
	Audit.Info("crud_event",
		zap.String("operation", op),
		zap.String("resource", resource),
		zap.Uint("resource_id", resourceID),
		zap.Uint("actor_id", actorID),
		zap.String("outcome", outcome),
		zap.String("reason", reason),
	)
}
