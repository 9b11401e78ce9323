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

// AccountStore persists accounts. The database enforces what the service
// pre-checks: a unique index on lower(email) over live rows makes the
// case-insensitive uniqueness guarantee hold under concurrent creates.
type AccountStore struct {
	db   *bun.DB
	repo repository.Repository[*accountRecord]
}

func NewAccountStore(db *bun.DB) (*AccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*accountRecord](db, accountHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid account repository wiring: %w", err)
		}
	}
	return &AccountStore{db: db, repo: repo}, nil
}

func (s *AccountStore) Create(ctx context.Context, in core.CreateAccountRecordInput) (core.Account, error) {
	if s == nil || s.repo == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	if err := in.Role.Validate(); err != nil {
		return core.Account{}, err
	}
	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.AccountStatusActive
	}
	if err := status.Validate(); err != nil {
		return core.Account{}, err
	}
	if strings.TrimSpace(in.Email) == "" {
		return core.Account{}, fmt.Errorf("sqlstore: account email is required")
	}
	in.Status = status

	created, err := s.repo.Create(ctx, newAccountRecord(in, time.Now().UTC()))
	if err != nil {
		return core.Account{}, err
	}
	return created.toDomain(), nil
}

func (s *AccountStore) Get(ctx context.Context, id string) (core.Account, error) {
	if s == nil || s.repo == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return core.Account{}, err
	}
	if record.DeletedAt != nil {
		return core.Account{}, fmt.Errorf("sqlstore: account %q not found", id)
	}
	return record.toDomain(), nil
}

func (s *AccountStore) GetIncludingDeleted(ctx context.Context, id string) (core.Account, error) {
	if s == nil || s.db == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	record := &accountRecord{}
	err := s.db.NewSelect().
		Model(record).
		WhereAllWithDeleted().
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return core.Account{}, err
	}
	return record.toDomain(), nil
}

func (s *AccountStore) List(ctx context.Context, filter core.AccountFilter) (core.AccountPage, error) {
	if s == nil || s.repo == nil {
		return core.AccountPage{}, fmt.Errorf("sqlstore: account store is not configured")
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
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(perPage, offset),
	}
	if role := strings.TrimSpace(string(filter.Role)); role != "" {
		selectors = append(selectors, repository.SelectBy("role", "=", role))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.AccountPage{}, err
	}
	items := make([]core.Account, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.AccountPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func (s *AccountStore) Update(ctx context.Context, id string, in core.UpdateAccountRecordInput) (core.Account, error) {
	if s == nil || s.repo == nil {
		return core.Account{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Account{}, fmt.Errorf("sqlstore: account id is required")
	}
	current, err := s.repo.GetByID(ctx, trimmedID)
	if err != nil {
		return core.Account{}, err
	}
	if current.DeletedAt != nil {
		return core.Account{}, fmt.Errorf("sqlstore: account %q not found", id)
	}

	if in.Name != nil {
		current.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		current.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		current.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		current.Address = strings.TrimSpace(*in.Address)
	}
	if in.Status != nil {
		if err := in.Status.Validate(); err != nil {
			return core.Account{}, err
		}
		current.Status = string(*in.Status)
	}
	current.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(trimmedID))
	if err != nil {
		return core.Account{}, err
	}
	return updated.toDomain(), nil
}

func (s *AccountStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: account id is required")
	}
	deletedAt := at.UTC()
	res, err := s.db.NewUpdate().
		Model((*accountRecord)(nil)).
		Set("deleted_at = ?", deletedAt).
		Set("updated_at = ?", deletedAt).
		WhereAllWithDeleted().
		Where("?TableAlias.id = ?", trimmedID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: account %q not found", id)
	}
	return nil
}

func (s *AccountStore) SetExternalID(ctx context.Context, id string, externalID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: account store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: account id is required")
	}
	res, err := s.db.NewUpdate().
		Model((*accountRecord)(nil)).
		Set("external_id = ?", strings.TrimSpace(externalID)).
		Set("updated_at = ?", time.Now().UTC()).
		WhereAllWithDeleted().
		Where("?TableAlias.id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: account %q not found", id)
	}
	return nil
}

func (s *AccountStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.emailExists(ctx, email, "")
}

func (s *AccountStore) EmailExistsExcluding(ctx context.Context, email string, excludeID string) (bool, error) {
	return s.emailExists(ctx, email, strings.TrimSpace(excludeID))
}

func (s *AccountStore) emailExists(ctx context.Context, email string, excludeID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: account store is not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, fmt.Errorf("sqlstore: email is required")
	}
	query := s.db.NewSelect().
		Model((*accountRecord)(nil)).
		Where("lower(?TableAlias.email) = ?", email)
	if excludeID != "" {
		query = query.Where("?TableAlias.id != ?", excludeID)
	}
	return query.Exists(ctx)
}

var _ core.AccountStore = (*AccountStore)(nil)
