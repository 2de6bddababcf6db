package models

import (
	"time"
)

type AuditAction string

const (
	AuditActionRegister       AuditAction = "register"
	AuditActionLogin          AuditAction = "login"
	AuditActionLoginFailed    AuditAction = "login_failed"
	AuditActionLogout         AuditAction = "logout"
	AuditActionSetup          AuditAction = "setup"
	AuditActionUserUpdate     AuditAction = "user_update"
	AuditActionCategoryCreate AuditAction = "category_create"
	AuditActionCategoryUpdate AuditAction = "category_update"
	AuditActionCategoryDelete AuditAction = "category_delete"
	AuditActionTaskCreate     AuditAction = "task_create"
	AuditActionTaskUpdate     AuditAction = "task_update"
	AuditActionTaskDelete     AuditAction = "task_delete"
	AuditActionTaskComplete   AuditAction = "task_complete"
	AuditActionTaskReopen     AuditAction = "task_reopen"
	AuditActionSettingsUpdate AuditAction = "settings_update"
)

// AuditActions lists every action, in the order offered for filtering.
var AuditActions = []AuditAction{
	AuditActionRegister,
	AuditActionLogin,
	AuditActionLoginFailed,
	AuditActionLogout,
	AuditActionSetup,
	AuditActionUserUpdate,
	AuditActionCategoryCreate,
	AuditActionCategoryUpdate,
	AuditActionCategoryDelete,
	AuditActionTaskCreate,
	AuditActionTaskUpdate,
	AuditActionTaskDelete,
	AuditActionTaskComplete,
	AuditActionTaskReopen,
	AuditActionSettingsUpdate,
}

type AuditLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UserID     uint        `gorm:"index" json:"user_id"`
	Username   string      `json:"username"`
	Action     AuditAction `gorm:"index" json:"action"`
	TargetID   *uint       `gorm:"index" json:"target_id,omitempty"`
	TargetName string      `json:"target_name,omitempty"`
	Details    string      `json:"details,omitempty"`
	IPAddress  string      `json:"ip_address"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}

// RevokedToken is a logged-out bearer token, kept until it would have
// expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:36"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
