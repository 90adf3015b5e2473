package services

import (
	"pocketledger/internal/logger"
	"pocketledger/internal/models"
)

// auditService records user-initiated mutations to the audit log stream.
type auditService struct {
	opts options
}

// NewAuditService creates a new AuditServicer. Entries go to the "audit"
// logger unless WithLogger says otherwise.
func NewAuditService(opts ...Option) AuditServicer {
	o := newOptions(append([]Option{WithLogger(logger.Named("audit"))}, opts...))
	return &auditService{opts: o}
}

// Log records an audit event. It never fails the caller.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changes,
		At:           s.opts.now(),
	}
	s.opts.log.Infow("audit",
		"user_id", entry.UserID,
		"action", entry.Action,
		"resource_type", entry.ResourceType,
		"resource_id", entry.ResourceID,
		"ip_address", entry.IPAddress,
		"changes", entry.Changes,
		"at", entry.At,
	)
}
