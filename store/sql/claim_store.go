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

type ClaimStore struct {
	db   *bun.DB
	repo repository.Repository[*claimRecord]
}

func NewClaimStore(db *bun.DB) (*ClaimStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*claimRecord](db, claimHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid claim repository wiring: %w", err)
		}
	}
	return &ClaimStore{db: db, repo: repo}, nil
}

func (s *ClaimStore) Create(ctx context.Context, in core.CreateClaimInput) (core.Claim, error) {
	if s == nil || s.repo == nil {
		return core.Claim{}, fmt.Errorf("sqlstore: claim store is not configured")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return core.Claim{}, fmt.Errorf("sqlstore: claim reference is required")
	}
	if strings.TrimSpace(in.InsurerID) == "" || strings.TrimSpace(in.ProviderID) == "" {
		return core.Claim{}, fmt.Errorf("sqlstore: claim insurer and provider ids are required")
	}
	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.ClaimStatusOpen
	}
	in.Status = status

	created, err := s.repo.Create(ctx, newClaimRecord(in, time.Now().UTC()))
	if err != nil {
		return core.Claim{}, err
	}
	return created.toDomain(), nil
}

func (s *ClaimStore) Get(ctx context.Context, id string) (core.Claim, error) {
	if s == nil || s.repo == nil {
		return core.Claim{}, fmt.Errorf("sqlstore: claim store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return core.Claim{}, err
	}
	return record.toDomain(), nil
}

func (s *ClaimStore) ListByInsurer(ctx context.Context, insurerID string) ([]core.Claim, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: claim store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("insurer_id", "=", strings.TrimSpace(insurerID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Claim, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

var _ core.ClaimStore = (*ClaimStore)(nil)
