package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-claims/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// AuditStore is append only. Entries are never updated or deleted through
// this interface; retention is a database concern.
type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*auditEntryRecord]
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*auditEntryRecord](db, auditEntryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{db: db, repo: repo}, nil
}

func (s *AuditStore) Append(ctx context.Context, in core.AppendAuditEntryInput) (core.AuditEntry, error) {
	if s == nil || s.repo == nil {
		return core.AuditEntry{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	if err := in.Action.Validate(); err != nil {
		return core.AuditEntry{}, err
	}
	if strings.TrimSpace(in.EntityType) == "" || strings.TrimSpace(in.EntityID) == "" {
		return core.AuditEntry{}, fmt.Errorf("sqlstore: audit entity type and id are required")
	}

	created, err := s.repo.Create(ctx, newAuditEntryRecord(in, time.Now().UTC()))
	if err != nil {
		return core.AuditEntry{}, err
	}
	return created.toDomain(), nil
}

func (s *AuditStore) List(ctx context.Context, filter core.AuditFilter) (core.AuditPage, error) {
	if s == nil || s.repo == nil {
		return core.AuditPage{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if entityType := strings.TrimSpace(filter.EntityType); entityType != "" {
		selectors = append(selectors, repository.SelectBy("entity_type", "=", entityType))
	}
	if entityID := strings.TrimSpace(filter.EntityID); entityID != "" {
		selectors = append(selectors, repository.SelectBy("entity_id", "=", entityID))
	}
	if action := strings.TrimSpace(string(filter.Action)); action != "" {
		selectors = append(selectors, repository.SelectBy("action", "=", action))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.AuditPage{}, err
	}
	items := make([]core.AuditEntry, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.AuditPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

var _ core.AuditStore = (*AuditStore)(nil)
