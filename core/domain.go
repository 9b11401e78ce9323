package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidAccountRole             = errors.New("core: invalid account role")
	ErrInvalidAccountStatus           = errors.New("core: invalid account status")
	ErrInvalidAccountStatusTransition = errors.New("core: invalid account status transition")
	ErrInvalidAuditAction             = errors.New("core: invalid audit action")
)

type AccountRole string

const (
	AccountRoleAdmin    AccountRole = "admin"
	AccountRoleInsurer  AccountRole = "insurer"
	AccountRoleProvider AccountRole = "provider"
)

func (r AccountRole) Validate() error {
	switch r {
	case AccountRoleAdmin, AccountRoleInsurer, AccountRoleProvider:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAccountRole, string(r))
	}
}

func ParseAccountRole(value string) (AccountRole, error) {
	role := AccountRole(strings.TrimSpace(strings.ToLower(value)))
	if err := role.Validate(); err != nil {
		return "", err
	}
	return role, nil
}

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusInactive  AccountStatus = "inactive"
	AccountStatusSuspended AccountStatus = "suspended"
)

func (s AccountStatus) Validate() error {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusSuspended:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAccountStatus, string(s))
	}
}

// DeletedState is the tagged soft-delete state of an account. The zero value
// means the account is live; Deleted carries the deletion timestamp so that
// "is this excluded from active queries" stays a type-level question instead
// of a nullable column leaking into the domain.
type DeletedState struct {
	Deleted bool
	At      time.Time
}

func Live() DeletedState {
	return DeletedState{}
}

func DeletedAt(at time.Time) DeletedState {
	return DeletedState{Deleted: true, At: at.UTC()}
}

func (d DeletedState) IsDeleted() bool {
	return d.Deleted
}

// Account is a human actor with exactly one role. ExternalID is empty until
// the identity-provider record exists; a soft-deleted account keeps its
// external record disabled, not destroyed.
type Account struct {
	ID         string
	Role       AccountRole
	Status     AccountStatus
	ExternalID string
	Name       string
	Email      string
	Phone      string
	Address    string
	InsurerID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Deleted    DeletedState
}

func (a Account) DisplayName() string {
	name := strings.TrimSpace(a.Name)
	if name != "" {
		return name
	}
	return strings.TrimSpace(a.Email)
}

func accountStatusTransitionAllowed(current, next AccountStatus) bool {
	allowed := map[AccountStatus]map[AccountStatus]struct{}{
		AccountStatusActive: {
			AccountStatusInactive:  {},
			AccountStatusSuspended: {},
		},
		AccountStatusInactive: {
			AccountStatusActive:    {},
			AccountStatusSuspended: {},
		},
		AccountStatusSuspended: {
			AccountStatusActive: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

func (a *Account) TransitionTo(status AccountStatus, now time.Time) error {
	if a == nil {
		return nil
	}
	if err := status.Validate(); err != nil {
		return err
	}
	if a.Status == status {
		a.UpdatedAt = now
		return nil
	}
	if !accountStatusTransitionAllowed(a.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidAccountStatusTransition, a.Status, status)
	}
	a.Status = status
	a.UpdatedAt = now
	return nil
}

type AuditAction string

const (
	AuditActionCreate             AuditAction = "create"
	AuditActionUpdate             AuditAction = "update"
	AuditActionDelete             AuditAction = "delete"
	AuditActionPurge              AuditAction = "purge"
	AuditActionCompensationFailed AuditAction = "compensation_failed"
)

func (a AuditAction) Validate() error {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete,
		AuditActionPurge, AuditActionCompensationFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAuditAction, string(a))
	}
}

// AuditEntry is an append-only record of who did what. ActorID is nil for
// system-initiated actions; snapshots are opaque JSON strings owned by the
// caller and never interpreted here.
type AuditEntry struct {
	ID          string
	ActorID     *string
	Action      AuditAction
	EntityType  string
	EntityID    string
	Description string
	BeforeJSON  string
	AfterJSON   string
	RequestMeta map[string]any
	CreatedAt   time.Time
}

type ClaimStatus string

const (
	ClaimStatusOpen     ClaimStatus = "open"
	ClaimStatusQuoted   ClaimStatus = "quoted"
	ClaimStatusClosed   ClaimStatus = "closed"
	ClaimStatusRejected ClaimStatus = "rejected"
)

type Claim struct {
	ID         string
	Reference  string
	InsurerID  string
	ProviderID string
	Status     ClaimStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type QuoteStatus string

const (
	QuoteStatusSubmitted QuoteStatus = "submitted"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusDeclined  QuoteStatus = "declined"
)

type Quote struct {
	ID          string
	ClaimID     string
	ProviderID  string
	Amount      int64
	Currency    string
	Notes       string
	Status      QuoteStatus
	Attachments []QuoteAttachment
	CreatedAt   time.Time
}

type QuoteAttachment struct {
	ID        string
	QuoteID   string
	FileName  string
	MimeType  string
	Content   []byte
	CreatedAt time.Time
}
