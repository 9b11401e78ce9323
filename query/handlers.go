package query

import (
	"context"

	"github.com/goliatone/go-claims/core"
)

type AccountReader interface {
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context, filter core.AccountFilter) (core.AccountPage, error)
}

type ClaimReader interface {
	GetClaim(ctx context.Context, id string) (core.Claim, error)
	ListClaimsByInsurer(ctx context.Context, insurerID string) ([]core.Claim, error)
}

type QuoteReader interface {
	GetQuote(ctx context.Context, id string) (core.Quote, error)
	ListQuotesByClaim(ctx context.Context, claimID string) ([]core.Quote, error)
}

type AuditReader interface {
	ListAuditEntries(ctx context.Context, filter core.AuditFilter) (core.AuditPage, error)
}

type GetAccountQuery struct {
	reader AccountReader
}

func NewGetAccountQuery(reader AccountReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.GetAccount(ctx, msg.AccountID)
}

type ListAccountsQuery struct {
	reader AccountReader
}

func NewListAccountsQuery(reader AccountReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, msg ListAccountsMessage) (core.AccountPage, error) {
	if q == nil || q.reader == nil {
		return core.AccountPage{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.ListAccounts(ctx, msg.Filter)
}

type GetClaimQuery struct {
	reader ClaimReader
}

func NewGetClaimQuery(reader ClaimReader) *GetClaimQuery {
	return &GetClaimQuery{reader: reader}
}

func (q *GetClaimQuery) Query(ctx context.Context, msg GetClaimMessage) (core.Claim, error) {
	if q == nil || q.reader == nil {
		return core.Claim{}, queryDependencyError("query: claim reader is required")
	}
	return q.reader.GetClaim(ctx, msg.ClaimID)
}

type ListClaimsByInsurerQuery struct {
	reader ClaimReader
}

func NewListClaimsByInsurerQuery(reader ClaimReader) *ListClaimsByInsurerQuery {
	return &ListClaimsByInsurerQuery{reader: reader}
}

func (q *ListClaimsByInsurerQuery) Query(ctx context.Context, msg ListClaimsByInsurerMessage) ([]core.Claim, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: claim reader is required")
	}
	return q.reader.ListClaimsByInsurer(ctx, msg.InsurerID)
}

type GetQuoteQuery struct {
	reader QuoteReader
}

func NewGetQuoteQuery(reader QuoteReader) *GetQuoteQuery {
	return &GetQuoteQuery{reader: reader}
}

func (q *GetQuoteQuery) Query(ctx context.Context, msg GetQuoteMessage) (core.Quote, error) {
	if q == nil || q.reader == nil {
		return core.Quote{}, queryDependencyError("query: quote reader is required")
	}
	return q.reader.GetQuote(ctx, msg.QuoteID)
}

type ListQuotesByClaimQuery struct {
	reader QuoteReader
}

func NewListQuotesByClaimQuery(reader QuoteReader) *ListQuotesByClaimQuery {
	return &ListQuotesByClaimQuery{reader: reader}
}

func (q *ListQuotesByClaimQuery) Query(ctx context.Context, msg ListQuotesByClaimMessage) ([]core.Quote, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: quote reader is required")
	}
	return q.reader.ListQuotesByClaim(ctx, msg.ClaimID)
}

type ListAuditEntriesQuery struct {
	reader AuditReader
}

func NewListAuditEntriesQuery(reader AuditReader) *ListAuditEntriesQuery {
	return &ListAuditEntriesQuery{reader: reader}
}

func (q *ListAuditEntriesQuery) Query(ctx context.Context, msg ListAuditEntriesMessage) (core.AuditPage, error) {
	if q == nil || q.reader == nil {
		return core.AuditPage{}, queryDependencyError("query: audit reader is required")
	}
	return q.reader.ListAuditEntries(ctx, msg.Filter)
}
