package core

import (
	"context"
	"fmt"
	"strings"
)

// recordAudit appends a single audit entry. Callers decide how a failure is
// treated: the create path propagates it, update and delete log and continue.
func (s *Service) recordAudit(ctx context.Context, in AppendAuditEntryInput) (AuditEntry, error) {
	if s == nil || s.auditStore == nil {
		return AuditEntry{}, fmt.Errorf("core: audit store is required")
	}
	if err := in.Action.Validate(); err != nil {
		return AuditEntry{}, err
	}
	in.EntityType = strings.TrimSpace(in.EntityType)
	in.EntityID = strings.TrimSpace(in.EntityID)
	in.Description = strings.TrimSpace(in.Description)
	if in.EntityType == "" || in.EntityID == "" {
		return AuditEntry{}, fmt.Errorf("core: audit entry requires entity type and id")
	}
	return s.auditStore.Append(ctx, in)
}

func (s *Service) ListAuditEntries(ctx context.Context, filter AuditFilter) (AuditPage, error) {
	if s == nil || s.auditStore == nil {
		return AuditPage{}, s.mapError(fmt.Errorf("core: audit store is required"))
	}
	if filter.Action != "" {
		if err := filter.Action.Validate(); err != nil {
			return AuditPage{}, s.mapError(err)
		}
	}
	page, err := s.auditStore.List(ctx, filter)
	if err != nil {
		return AuditPage{}, s.mapError(err)
	}
	return page, nil
}
