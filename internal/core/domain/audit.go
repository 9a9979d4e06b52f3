package domain

import "time"

// AuditAction identifies a recorded security-relevant event.
type AuditAction string

const (
	AuditLogin          AuditAction = "login"
	AuditLoginFailed    AuditAction = "login_failed"
	AuditRegister       AuditAction = "register"
	AuditLogout         AuditAction = "logout"
	AuditSessionExpired AuditAction = "session_expired"
	AuditRolesChanged   AuditAction = "roles_changed"
)

// AuditEntry records one security event for the audit trail. Actor is the
// operator identifier (email) the event pertains to.
type AuditEntry struct {
	Actor     string      `json:"actor"`
	Action    AuditAction `json:"action"`
	Detail    string      `json:"detail,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
