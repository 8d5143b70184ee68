package models

import "time"

// Audit event names recorded by the service layer.
const (
	AuditUserRegistered  = "user.registered"
	AuditUserLoggedIn    = "user.logged_in"
	AuditUserLoggedOut   = "user.logged_out"
	AuditTokenRefreshed  = "token.refreshed"
	AuditPasswordChanged = "user.password_changed"
	AuditProjectCreated  = "project.created"
	AuditProjectUpdated  = "project.updated"
	AuditProjectDeleted  = "project.deleted"
	AuditMemberAdded     = "project.member_added"
	AuditMemberUpdated   = "project.member_updated"
	AuditMemberRemoved   = "project.member_removed"
)

// AuditLog is an append-only record of a security-relevant action.
type AuditLog struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Event     string    `gorm:"type:varchar(64);not null;index" json:"event"`
	ActorID   uint64    `gorm:"index" json:"actor_id"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
