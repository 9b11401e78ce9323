package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	claimEntityType = "claim"
	quoteEntityType = "quote"

	maxQuoteAttachments    = 10
	maxQuoteAttachmentSize = 5 << 20
)

// CreateClaim registers a claim an insurer opens against a provider. Both
// accounts must exist with the matching role.
func (s *Service) CreateClaim(ctx context.Context, in CreateClaimInput) (Claim, error) {
	startedAt := time.Now().UTC()
	claim, err := s.createClaim(ctx, in)
	s.observeOperation(ctx, startedAt, "claim_create", err, map[string]any{
		"claim_id": claim.ID,
		"role":     string(AccountRoleInsurer),
	})
	return claim, err
}

func (s *Service) createClaim(ctx context.Context, in CreateClaimInput) (Claim, error) {
	if err := s.requireStores(); err != nil {
		return Claim{}, s.mapError(err)
	}
	if s.claimStore == nil {
		return Claim{}, s.mapError(fmt.Errorf("core: claim store is required"))
	}

	in.Reference = strings.TrimSpace(in.Reference)
	in.InsurerID = strings.TrimSpace(in.InsurerID)
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	if in.Reference == "" {
		return Claim{}, s.validationError("claim reference is required", nil)
	}
	if in.Status == "" {
		in.Status = ClaimStatusOpen
	}

	insurer, err := s.accountStore.Get(ctx, in.InsurerID)
	if err != nil || insurer.Role != AccountRoleInsurer {
		return Claim{}, s.validationError(
			fmt.Sprintf("insurer %q does not exist", in.InsurerID),
			map[string]any{"insurer_id": in.InsurerID},
		)
	}
	provider, err := s.accountStore.Get(ctx, in.ProviderID)
	if err != nil || provider.Role != AccountRoleProvider {
		return Claim{}, s.validationError(
			fmt.Sprintf("provider %q does not exist", in.ProviderID),
			map[string]any{"provider_id": in.ProviderID},
		)
	}

	claim, err := s.claimStore.Create(ctx, in)
	if err != nil {
		return Claim{}, s.mapError(err)
	}
	return claim, nil
}

func (s *Service) GetClaim(ctx context.Context, id string) (Claim, error) {
	if s == nil || s.claimStore == nil {
		return Claim{}, s.mapError(fmt.Errorf("core: claim store is required"))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Claim{}, s.validationError("claim id is required", nil)
	}
	claim, err := s.claimStore.Get(ctx, id)
	if err != nil {
		return Claim{}, s.entityNotFoundError(claimEntityType, id)
	}
	return claim, nil
}

func (s *Service) ListClaimsByInsurer(ctx context.Context, insurerID string) ([]Claim, error) {
	if s == nil || s.claimStore == nil {
		return nil, s.mapError(fmt.Errorf("core: claim store is required"))
	}
	insurerID = strings.TrimSpace(insurerID)
	if insurerID == "" {
		return nil, s.validationError("insurer id is required", nil)
	}
	claims, err := s.claimStore.ListByInsurer(ctx, insurerID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return claims, nil
}

// SubmitQuote records a provider's quote against a claim together with its
// decoded attachments in one transaction, then notifies the insurer on a
// best-effort basis.
func (s *Service) SubmitQuote(ctx context.Context, in SubmitQuoteInput) (Quote, error) {
	startedAt := time.Now().UTC()
	quote, err := s.submitQuote(ctx, in)
	s.observeOperation(ctx, startedAt, "quote_submit", err, map[string]any{
		"claim_id":   strings.TrimSpace(in.ClaimID),
		"account_id": strings.TrimSpace(in.ProviderID),
	})
	return quote, err
}

func (s *Service) submitQuote(ctx context.Context, in SubmitQuoteInput) (Quote, error) {
	if err := s.requireStores(); err != nil {
		return Quote{}, s.mapError(err)
	}
	if s.claimStore == nil || s.quoteStore == nil {
		return Quote{}, s.mapError(fmt.Errorf("core: claim and quote stores are required"))
	}

	in.ClaimID = strings.TrimSpace(in.ClaimID)
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.Notes = strings.TrimSpace(in.Notes)
	if in.ClaimID == "" {
		return Quote{}, s.validationError("claim id is required", nil)
	}
	if in.ProviderID == "" {
		return Quote{}, s.validationError("provider id is required", nil)
	}
	if in.Amount <= 0 {
		return Quote{}, s.validationError("quote amount must be positive", map[string]any{
			"amount": in.Amount,
		})
	}
	if len(in.Currency) != 3 {
		return Quote{}, s.validationError("currency must be a 3-letter code", map[string]any{
			"currency": in.Currency,
		})
	}
	if len(in.Attachments) > maxQuoteAttachments {
		return Quote{}, s.validationError(
			fmt.Sprintf("at most %d attachments are allowed", maxQuoteAttachments),
			map[string]any{"attachments": len(in.Attachments)},
		)
	}

	claim, err := s.claimStore.Get(ctx, in.ClaimID)
	if err != nil {
		return Quote{}, s.entityNotFoundError(claimEntityType, in.ClaimID)
	}
	provider, err := s.accountStore.Get(ctx, in.ProviderID)
	if err != nil || provider.Role != AccountRoleProvider {
		return Quote{}, s.validationError(
			fmt.Sprintf("provider %q does not exist", in.ProviderID),
			map[string]any{"provider_id": in.ProviderID},
		)
	}

	attachments, err := s.decodeAttachments(in.Attachments)
	if err != nil {
		return Quote{}, err
	}

	quote, err := s.quoteStore.CreateWithAttachments(ctx, CreateQuoteInput{
		ClaimID:     claim.ID,
		ProviderID:  provider.ID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Notes:       in.Notes,
		Status:      QuoteStatusSubmitted,
		Attachments: attachments,
	})
	if err != nil {
		return Quote{}, s.mapError(err)
	}

	if insurer, insurerErr := s.accountStore.Get(ctx, claim.InsurerID); insurerErr == nil {
		s.sendNotification(ctx, quoteSubmittedNotification(insurer, provider, claim, quote), map[string]any{
			"claim_id": claim.ID,
			"quote_id": quote.ID,
			"template": "quote_submitted",
		})
	} else {
		s.logWarn(ctx, "skipping quote notification, insurer lookup failed", map[string]any{
			"claim_id":   claim.ID,
			"insurer_id": claim.InsurerID,
			"error":      insurerErr.Error(),
		})
	}

	if _, auditErr := s.recordAudit(ctx, AppendAuditEntryInput{
		ActorID:     in.ActorID,
		Action:      AuditActionCreate,
		EntityType:  quoteEntityType,
		EntityID:    quote.ID,
		Description: fmt.Sprintf("provider %s quoted %s on claim %s", provider.Email, formatAmount(quote.Amount, quote.Currency), claim.Reference),
		AfterJSON: snapshotJSON(map[string]any{
			"quote_id":    quote.ID,
			"claim_id":    claim.ID,
			"provider_id": provider.ID,
			"amount":      quote.Amount,
			"currency":    quote.Currency,
			"attachments": len(quote.Attachments),
		}),
		RequestMeta: in.RequestMeta,
	}); auditErr != nil {
		s.logWarn(ctx, "audit append failed for quote submission", map[string]any{
			"quote_id": quote.ID,
			"error":    auditErr.Error(),
		})
	}

	return quote, nil
}

func (s *Service) GetQuote(ctx context.Context, id string) (Quote, error) {
	if s == nil || s.quoteStore == nil {
		return Quote{}, s.mapError(fmt.Errorf("core: quote store is required"))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Quote{}, s.validationError("quote id is required", nil)
	}
	quote, err := s.quoteStore.Get(ctx, id)
	if err != nil {
		return Quote{}, s.entityNotFoundError(quoteEntityType, id)
	}
	return quote, nil
}

func (s *Service) ListQuotesByClaim(ctx context.Context, claimID string) ([]Quote, error) {
	if s == nil || s.quoteStore == nil {
		return nil, s.mapError(fmt.Errorf("core: quote store is required"))
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return nil, s.validationError("claim id is required", nil)
	}
	quotes, err := s.quoteStore.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return quotes, nil
}

func (s *Service) decodeAttachments(inputs []QuoteAttachmentInput) ([]QuoteAttachment, error) {
	attachments := make([]QuoteAttachment, 0, len(inputs))
	for i, input := range inputs {
		fileName := strings.TrimSpace(input.FileName)
		if fileName == "" {
			return nil, s.validationError(
				fmt.Sprintf("attachment %d is missing a file name", i),
				nil,
			)
		}
		content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input.ContentBase64))
		if err != nil {
			return nil, s.validationError(
				fmt.Sprintf("attachment %q is not valid base64", fileName),
				map[string]any{"file_name": fileName},
			)
		}
		if len(content) == 0 {
			return nil, s.validationError(
				fmt.Sprintf("attachment %q is empty", fileName),
				map[string]any{"file_name": fileName},
			)
		}
		if len(content) > maxQuoteAttachmentSize {
			return nil, s.validationError(
				fmt.Sprintf("attachment %q exceeds the %d byte limit", fileName, maxQuoteAttachmentSize),
				map[string]any{"file_name": fileName, "size": len(content)},
			)
		}
		attachments = append(attachments, QuoteAttachment{
			FileName: fileName,
			MimeType: strings.TrimSpace(input.MimeType),
			Content:  content,
		})
	}
	return attachments, nil
}

func (s *Service) entityNotFoundError(entityType string, id string) error {
	wrapped := s.errorFactory(
		fmt.Sprintf("%s %q was not found", entityType, id),
		goerrors.CategoryNotFound,
	).WithTextCode(ClaimsErrorNotFound)
	return ensureClaimsErrorEnvelope(wrapped.WithMetadata(map[string]any{
		"entity_type": entityType,
		"entity_id":   id,
	}))
}
