package models

import "time"

// AuditLog is one user-initiated mutation, emitted to the audit log stream.
type AuditLog struct {
	UserID       string         `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	IPAddress    string         `json:"ip_address"`
	Changes      map[string]any `json:"changes,omitempty"`
	At           time.Time      `json:"at"`
}
