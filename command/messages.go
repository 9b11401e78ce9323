package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-claims/core"
)

const (
	TypeCreateAccount         = "claims.command.account.create"
	TypeUpdateAccount         = "claims.command.account.update"
	TypeDeleteAccount         = "claims.command.account.delete"
	TypePurgeExternalIdentity = "claims.command.account.purge_external_identity"
	TypeCreateClaim           = "claims.command.claim.create"
	TypeSubmitQuote           = "claims.command.quote.submit"
)

type CreateAccountMessage struct {
	Input core.CreateAccountInput
}

func (CreateAccountMessage) Type() string { return TypeCreateAccount }

func (m CreateAccountMessage) Validate() error {
	if err := validateRole(m.Input.Role); err != nil {
		return err
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return fmt.Errorf("command: name is required")
	}
	if strings.TrimSpace(m.Input.Email) == "" {
		return fmt.Errorf("command: email is required")
	}
	return nil
}

// UpdateAccountMessage requires ExpectedRole even though the service treats
// an empty role as "any". Update commands arrive through role-specific
// endpoints, so a missing role here means the caller skipped that routing.
type UpdateAccountMessage struct {
	Input core.UpdateAccountInput
}

func (UpdateAccountMessage) Type() string { return TypeUpdateAccount }

func (m UpdateAccountMessage) Validate() error {
	if strings.TrimSpace(m.Input.ID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	if err := validateRole(m.Input.ExpectedRole); err != nil {
		return err
	}
	return nil
}

// DeleteAccountMessage requires ExpectedRole for the same reason as
// UpdateAccountMessage.
type DeleteAccountMessage struct {
	Input core.DeleteAccountInput
}

func (DeleteAccountMessage) Type() string { return TypeDeleteAccount }

func (m DeleteAccountMessage) Validate() error {
	if strings.TrimSpace(m.Input.ID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	if err := validateRole(m.Input.ExpectedRole); err != nil {
		return err
	}
	return nil
}

type PurgeExternalIdentityMessage struct {
	Input core.PurgeExternalIdentityInput
}

func (PurgeExternalIdentityMessage) Type() string { return TypePurgeExternalIdentity }

func (m PurgeExternalIdentityMessage) Validate() error {
	if strings.TrimSpace(m.Input.AccountID) == "" {
		return fmt.Errorf("command: account id is required")
	}
	return nil
}

type CreateClaimMessage struct {
	Input core.CreateClaimInput
}

func (CreateClaimMessage) Type() string { return TypeCreateClaim }

func (m CreateClaimMessage) Validate() error {
	if strings.TrimSpace(m.Input.Reference) == "" {
		return fmt.Errorf("command: claim reference is required")
	}
	if strings.TrimSpace(m.Input.InsurerID) == "" {
		return fmt.Errorf("command: insurer id is required")
	}
	if strings.TrimSpace(m.Input.ProviderID) == "" {
		return fmt.Errorf("command: provider id is required")
	}
	return nil
}

type SubmitQuoteMessage struct {
	Input core.SubmitQuoteInput
}

func (SubmitQuoteMessage) Type() string { return TypeSubmitQuote }

func (m SubmitQuoteMessage) Validate() error {
	if strings.TrimSpace(m.Input.ClaimID) == "" {
		return fmt.Errorf("command: claim id is required")
	}
	if strings.TrimSpace(m.Input.ProviderID) == "" {
		return fmt.Errorf("command: provider id is required")
	}
	if m.Input.Amount <= 0 {
		return fmt.Errorf("command: amount must be positive")
	}
	if strings.TrimSpace(m.Input.Currency) == "" {
		return fmt.Errorf("command: currency is required")
	}
	return nil
}

func validateRole(role core.AccountRole) error {
	if err := role.Validate(); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}
