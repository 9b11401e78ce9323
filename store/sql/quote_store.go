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

// QuoteStore writes a quote and its attachments in one transaction so a
// partially stored submission can never be observed.
type QuoteStore struct {
	db             *bun.DB
	repo           repository.Repository[*quoteRecord]
	attachmentRepo repository.Repository[*quoteAttachmentRecord]
}

func NewQuoteStore(db *bun.DB) (*QuoteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*quoteRecord](db, quoteHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid quote repository wiring: %w", err)
		}
	}
	attachmentRepo := repository.NewRepository[*quoteAttachmentRecord](db, quoteAttachmentHandlers())
	if validator, ok := attachmentRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid quote attachment repository wiring: %w", err)
		}
	}
	return &QuoteStore{db: db, repo: repo, attachmentRepo: attachmentRepo}, nil
}

func (s *QuoteStore) CreateWithAttachments(ctx context.Context, in core.CreateQuoteInput) (core.Quote, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: quote store is not configured")
	}
	if strings.TrimSpace(in.ClaimID) == "" {
		return core.Quote{}, fmt.Errorf("sqlstore: quote claim id is required")
	}
	if strings.TrimSpace(in.ProviderID) == "" {
		return core.Quote{}, fmt.Errorf("sqlstore: quote provider id is required")
	}
	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.QuoteStatusSubmitted
	}
	in.Status = status
	now := time.Now().UTC()

	var out core.Quote
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := newQuoteRecord(in, now)
		inserted, createErr := s.repo.CreateTx(ctx, tx, record)
		if createErr != nil {
			return createErr
		}
		out = inserted.toDomain()

		for _, attachment := range in.Attachments {
			attachmentRecord := newQuoteAttachmentRecord(inserted.ID, attachment, now)
			insertedAttachment, attachErr := s.attachmentRepo.CreateTx(ctx, tx, attachmentRecord)
			if attachErr != nil {
				return attachErr
			}
			out.Attachments = append(out.Attachments, insertedAttachment.toDomain())
		}
		return nil
	})
	if err != nil {
		return core.Quote{}, err
	}
	return out, nil
}

func (s *QuoteStore) Get(ctx context.Context, id string) (core.Quote, error) {
	if s == nil || s.repo == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: quote store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return core.Quote{}, err
	}
	quote := record.toDomain()
	attachments, err := s.attachmentsByQuote(ctx, quote.ID)
	if err != nil {
		return core.Quote{}, err
	}
	quote.Attachments = attachments
	return quote, nil
}

func (s *QuoteStore) ListByClaim(ctx context.Context, claimID string) ([]core.Quote, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: quote store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("claim_id", "=", strings.TrimSpace(claimID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Quote, 0, len(records))
	for _, record := range records {
		quote := record.toDomain()
		attachments, attachErr := s.attachmentsByQuote(ctx, quote.ID)
		if attachErr != nil {
			return nil, attachErr
		}
		quote.Attachments = attachments
		out = append(out, quote)
	}
	return out, nil
}

func (s *QuoteStore) attachmentsByQuote(ctx context.Context, quoteID string) ([]core.QuoteAttachment, error) {
	records, _, err := s.attachmentRepo.List(ctx,
		repository.SelectBy("quote_id", "=", quoteID),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.QuoteAttachment, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

var _ core.QuoteStore = (*QuoteStore)(nil)
