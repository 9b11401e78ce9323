package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-claims/core"
)

const (
	TypeGetAccount       = "claims.query.account.get"
	TypeListAccounts     = "claims.query.account.list"
	TypeGetClaim         = "claims.query.claim.get"
	TypeListClaims       = "claims.query.claim.list_by_insurer"
	TypeGetQuote         = "claims.query.quote.get"
	TypeListQuotes       = "claims.query.quote.list_by_claim"
	TypeListAuditEntries = "claims.query.audit.list"
)

type GetAccountMessage struct {
	AccountID string
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" {
		return fmt.Errorf("query: account id is required")
	}
	return nil
}

type ListAccountsMessage struct {
	Filter core.AccountFilter
}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

func (m ListAccountsMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	if m.Filter.Role != "" {
		if err := m.Filter.Role.Validate(); err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}
	return nil
}

type GetClaimMessage struct {
	ClaimID string
}

func (GetClaimMessage) Type() string { return TypeGetClaim }

func (m GetClaimMessage) Validate() error {
	if strings.TrimSpace(m.ClaimID) == "" {
		return fmt.Errorf("query: claim id is required")
	}
	return nil
}

type ListClaimsByInsurerMessage struct {
	InsurerID string
}

func (ListClaimsByInsurerMessage) Type() string { return TypeListClaims }

func (m ListClaimsByInsurerMessage) Validate() error {
	if strings.TrimSpace(m.InsurerID) == "" {
		return fmt.Errorf("query: insurer id is required")
	}
	return nil
}

type GetQuoteMessage struct {
	QuoteID string
}

func (GetQuoteMessage) Type() string { return TypeGetQuote }

func (m GetQuoteMessage) Validate() error {
	if strings.TrimSpace(m.QuoteID) == "" {
		return fmt.Errorf("query: quote id is required")
	}
	return nil
}

type ListQuotesByClaimMessage struct {
	ClaimID string
}

func (ListQuotesByClaimMessage) Type() string { return TypeListQuotes }

func (m ListQuotesByClaimMessage) Validate() error {
	if strings.TrimSpace(m.ClaimID) == "" {
		return fmt.Errorf("query: claim id is required")
	}
	return nil
}

type ListAuditEntriesMessage struct {
	Filter core.AuditFilter
}

func (ListAuditEntriesMessage) Type() string { return TypeListAuditEntries }

func (m ListAuditEntriesMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	if m.Filter.Action != "" {
		if err := m.Filter.Action.Validate(); err != nil {
			return fmt.Errorf("query: %w", err)
		}
	}
	return nil
}
