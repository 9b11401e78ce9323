package core

import (
	"context"
	"errors"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// ErrExternalAccountExists is the distinguishable "already exists" signal an
// IdentityProvider implementation must wrap when the external service reports
// a conflict on create.
var ErrExternalAccountExists = errors.New("core: external account already exists")

// ErrExternalAccountNotFound is the distinguishable "already gone" signal an
// IdentityProvider implementation must wrap when the external service reports
// a missing record. Deletion paths treat it as success: the record being
// absent is the outcome they were after.
var ErrExternalAccountNotFound = errors.New("core: external account not found")

type CreateAccountInput struct {
	Role        AccountRole
	Name        string
	Email       string
	Phone       string
	Address     string
	InsurerID   string
	ActorID     *string
	RequestMeta map[string]any
}

type UpdateAccountInput struct {
	ID           string
	ExpectedRole AccountRole
	Name         *string
	Email        *string
	Phone        *string
	Address      *string
	ActorID      *string
	RequestMeta  map[string]any
}

type DeleteAccountInput struct {
	ID           string
	ExpectedRole AccountRole
	ActorID      *string
	RequestMeta  map[string]any
}

type PurgeExternalIdentityInput struct {
	AccountID   string
	ActorID     *string
	RequestMeta map[string]any
}

type AccountFilter struct {
	Role    AccountRole
	Page    int
	PerPage int
}

type AccountPage struct {
	Items   []Account
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// CreateAccountRecordInput is the store-level shape: the orchestrator has
// already provisioned the external identity by the time this is persisted.
type CreateAccountRecordInput struct {
	Role       AccountRole
	Status     AccountStatus
	ExternalID string
	Name       string
	Email      string
	Phone      string
	Address    string
	InsurerID  string
}

// UpdateAccountRecordInput carries only the fields to touch; nil means leave
// the stored value alone.
type UpdateAccountRecordInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Status  *AccountStatus
}

type AppendAuditEntryInput struct {
	ActorID     *string
	Action      AuditAction
	EntityType  string
	EntityID    string
	Description string
	BeforeJSON  string
	AfterJSON   string
	RequestMeta map[string]any
}

type AuditFilter struct {
	EntityType string
	EntityID   string
	Action     AuditAction
	Page       int
	PerPage    int
}

type AuditPage struct {
	Items   []AuditEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

type CreateClaimInput struct {
	Reference  string
	InsurerID  string
	ProviderID string
	Status     ClaimStatus
}

type QuoteAttachmentInput struct {
	FileName      string
	MimeType      string
	ContentBase64 string
}

type SubmitQuoteInput struct {
	ClaimID     string
	ProviderID  string
	Amount      int64
	Currency    string
	Notes       string
	Attachments []QuoteAttachmentInput
	ActorID     *string
	RequestMeta map[string]any
}

// CreateQuoteInput is the store-level shape with attachments already decoded.
type CreateQuoteInput struct {
	ClaimID     string
	ProviderID  string
	Amount      int64
	Currency    string
	Notes       string
	Status      QuoteStatus
	Attachments []QuoteAttachment
}

type AccountStore interface {
	Create(ctx context.Context, in CreateAccountRecordInput) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	GetIncludingDeleted(ctx context.Context, id string) (Account, error)
	List(ctx context.Context, filter AccountFilter) (AccountPage, error)
	Update(ctx context.Context, id string, in UpdateAccountRecordInput) (Account, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	SetExternalID(ctx context.Context, id string, externalID string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	EmailExistsExcluding(ctx context.Context, email string, excludeID string) (bool, error)
}

type AuditStore interface {
	Append(ctx context.Context, in AppendAuditEntryInput) (AuditEntry, error)
	List(ctx context.Context, filter AuditFilter) (AuditPage, error)
}

type ClaimStore interface {
	Create(ctx context.Context, in CreateClaimInput) (Claim, error)
	Get(ctx context.Context, id string) (Claim, error)
	ListByInsurer(ctx context.Context, insurerID string) ([]Claim, error)
}

type QuoteStore interface {
	CreateWithAttachments(ctx context.Context, in CreateQuoteInput) (Quote, error)
	Get(ctx context.Context, id string) (Quote, error)
	ListByClaim(ctx context.Context, claimID string) ([]Quote, error)
}

type IdentityCreateInput struct {
	Email         string
	Password      string
	DisplayName   string
	EmailVerified bool
	Disabled      bool
}

// IdentityUpdateInput carries only the fields to propagate; nil means leave
// the external record alone.
type IdentityUpdateInput struct {
	Email       *string
	DisplayName *string
}

// IdentityProvider is the injected capability for the external identity
// service. Implementations must wrap ErrExternalAccountExists on a create
// conflict so the orchestrator can translate it.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, in IdentityCreateInput) (string, error)
	UpdateAccount(ctx context.Context, externalID string, in IdentityUpdateInput) error
	SetRoleClaim(ctx context.Context, externalID string, role AccountRole) error
	GenerateEmailVerificationLink(ctx context.Context, email string) (string, error)
	DisableAccount(ctx context.Context, externalID string) error
	DeleteAccount(ctx context.Context, externalID string) error
}

type Notification struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Notifier delivers transactional email. Callers treat Send as fire and
// forget; the orchestrator swallows and logs failures.
type Notifier interface {
	Send(ctx context.Context, msg Notification) error
}

type StoreProvider interface {
	AccountStore() AccountStore
	AuditStore() AuditStore
	ClaimStore() ClaimStore
	QuoteStore() QuoteStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
