package query

import (
	"github.com/goliatone/go-claims/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetAccountMessage, core.Account]          = (*GetAccountQuery)(nil)
	_ gocmd.Querier[ListAccountsMessage, core.AccountPage]    = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[GetClaimMessage, core.Claim]              = (*GetClaimQuery)(nil)
	_ gocmd.Querier[ListClaimsByInsurerMessage, []core.Claim] = (*ListClaimsByInsurerQuery)(nil)
	_ gocmd.Querier[GetQuoteMessage, core.Quote]              = (*GetQuoteQuery)(nil)
	_ gocmd.Querier[ListQuotesByClaimMessage, []core.Quote]   = (*ListQuotesByClaimQuery)(nil)
	_ gocmd.Querier[ListAuditEntriesMessage, core.AuditPage]  = (*ListAuditEntriesQuery)(nil)
)
