package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type accountRecord struct {
	bun.BaseModel `bun:"table:claims_accounts,alias:acc"`

	ID         string     `bun:"id,pk"`
	Role       string     `bun:"role,notnull"`
	Status     string     `bun:"status,notnull"`
	ExternalID string     `bun:"external_id"`
	Name       string     `bun:"name,notnull"`
	Email      string     `bun:"email,notnull"`
	Phone      string     `bun:"phone"`
	Address    string     `bun:"address"`
	InsurerID  *string    `bun:"insurer_id"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt  *time.Time `bun:"deleted_at,soft_delete"`
}

type auditEntryRecord struct {
	bun.BaseModel `bun:"table:claims_audit_entries,alias:aud"`

	ID          string         `bun:"id,pk"`
	ActorID     *string        `bun:"actor_id"`
	Action      string         `bun:"action,notnull"`
	EntityType  string         `bun:"entity_type,notnull"`
	EntityID    string         `bun:"entity_id,notnull"`
	Description string         `bun:"description"`
	BeforeJSON  string         `bun:"before_json"`
	AfterJSON   string         `bun:"after_json"`
	RequestMeta map[string]any `bun:"request_meta,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type claimRecord struct {
	bun.BaseModel `bun:"table:claims_claims,alias:clm"`

	ID         string    `bun:"id,pk"`
	Reference  string    `bun:"reference,notnull"`
	InsurerID  string    `bun:"insurer_id,notnull"`
	ProviderID string    `bun:"provider_id,notnull"`
	Status     string    `bun:"status,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type quoteRecord struct {
	bun.BaseModel `bun:"table:claims_quotes,alias:qt"`

	ID         string    `bun:"id,pk"`
	ClaimID    string    `bun:"claim_id,notnull"`
	ProviderID string    `bun:"provider_id,notnull"`
	Amount     int64     `bun:"amount,notnull"`
	Currency   string    `bun:"currency,notnull"`
	Notes      string    `bun:"notes"`
	Status     string    `bun:"status,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type quoteAttachmentRecord struct {
	bun.BaseModel `bun:"table:claims_quote_attachments,alias:qta"`

	ID        string    `bun:"id,pk"`
	QuoteID   string    `bun:"quote_id,notnull"`
	FileName  string    `bun:"file_name,notnull"`
	MimeType  string    `bun:"mime_type"`
	Content   []byte    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
