package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-claims/core"
	"github.com/google/uuid"
)

func newAccountRecord(in core.CreateAccountRecordInput, now time.Time) *accountRecord {
	record := &accountRecord{
		ID:         uuid.NewString(),
		Role:       string(in.Role),
		Status:     string(in.Status),
		ExternalID: strings.TrimSpace(in.ExternalID),
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if insurerID := strings.TrimSpace(in.InsurerID); insurerID != "" {
		record.InsurerID = &insurerID
	}
	return record
}

func (r *accountRecord) toDomain() core.Account {
	if r == nil {
		return core.Account{}
	}
	account := core.Account{
		ID:         r.ID,
		Role:       core.AccountRole(r.Role),
		Status:     core.AccountStatus(r.Status),
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Deleted:    core.Live(),
	}
	if r.InsurerID != nil {
		account.InsurerID = *r.InsurerID
	}
	if r.DeletedAt != nil {
		account.Deleted = core.DeletedAt(*r.DeletedAt)
	}
	return account
}

func newAuditEntryRecord(in core.AppendAuditEntryInput, now time.Time) *auditEntryRecord {
	record := &auditEntryRecord{
		ID:          uuid.NewString(),
		Action:      string(in.Action),
		EntityType:  strings.TrimSpace(in.EntityType),
		EntityID:    strings.TrimSpace(in.EntityID),
		Description: strings.TrimSpace(in.Description),
		BeforeJSON:  in.BeforeJSON,
		AfterJSON:   in.AfterJSON,
		RequestMeta: copyAnyMap(in.RequestMeta),
		CreatedAt:   now,
	}
	if in.ActorID != nil {
		actorID := strings.TrimSpace(*in.ActorID)
		record.ActorID = &actorID
	}
	return record
}

func (r *auditEntryRecord) toDomain() core.AuditEntry {
	if r == nil {
		return core.AuditEntry{}
	}
	return core.AuditEntry{
		ID:          r.ID,
		ActorID:     r.ActorID,
		Action:      core.AuditAction(r.Action),
		EntityType:  r.EntityType,
		EntityID:    r.EntityID,
		Description: r.Description,
		BeforeJSON:  r.BeforeJSON,
		AfterJSON:   r.AfterJSON,
		RequestMeta: copyAnyMap(r.RequestMeta),
		CreatedAt:   r.CreatedAt,
	}
}

func newClaimRecord(in core.CreateClaimInput, now time.Time) *claimRecord {
	return &claimRecord{
		ID:         uuid.NewString(),
		Reference:  strings.TrimSpace(in.Reference),
		InsurerID:  strings.TrimSpace(in.InsurerID),
		ProviderID: strings.TrimSpace(in.ProviderID),
		Status:     string(in.Status),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *claimRecord) toDomain() core.Claim {
	if r == nil {
		return core.Claim{}
	}
	return core.Claim{
		ID:         r.ID,
		Reference:  r.Reference,
		InsurerID:  r.InsurerID,
		ProviderID: r.ProviderID,
		Status:     core.ClaimStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func newQuoteRecord(in core.CreateQuoteInput, now time.Time) *quoteRecord {
	return &quoteRecord{
		ID:         uuid.NewString(),
		ClaimID:    strings.TrimSpace(in.ClaimID),
		ProviderID: strings.TrimSpace(in.ProviderID),
		Amount:     in.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		Notes:      strings.TrimSpace(in.Notes),
		Status:     string(in.Status),
		CreatedAt:  now,
	}
}

func (r *quoteRecord) toDomain() core.Quote {
	if r == nil {
		return core.Quote{}
	}
	return core.Quote{
		ID:         r.ID,
		ClaimID:    r.ClaimID,
		ProviderID: r.ProviderID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		Notes:      r.Notes,
		Status:     core.QuoteStatus(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func newQuoteAttachmentRecord(quoteID string, in core.QuoteAttachment, now time.Time) *quoteAttachmentRecord {
	return &quoteAttachmentRecord{
		ID:        uuid.NewString(),
		QuoteID:   quoteID,
		FileName:  strings.TrimSpace(in.FileName),
		MimeType:  strings.TrimSpace(in.MimeType),
		Content:   append([]byte(nil), in.Content...),
		CreatedAt: now,
	}
}

func (r *quoteAttachmentRecord) toDomain() core.QuoteAttachment {
	if r == nil {
		return core.QuoteAttachment{}
	}
	return core.QuoteAttachment{
		ID:        r.ID,
		QuoteID:   r.QuoteID,
		FileName:  r.FileName,
		MimeType:  r.MimeType,
		Content:   append([]byte(nil), r.Content...),
		CreatedAt: r.CreatedAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
