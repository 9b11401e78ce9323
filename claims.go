package claims

import "github.com/goliatone/go-claims/core"

type Config = core.Config

type ProvisioningConfig = core.ProvisioningConfig

type NotificationsConfig = core.NotificationsConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type AccountStore = core.AccountStore
type AuditStore = core.AuditStore
type ClaimStore = core.ClaimStore
type QuoteStore = core.QuoteStore
type IdentityProvider = core.IdentityProvider
type Notifier = core.Notifier

type Account = core.Account
type AccountRole = core.AccountRole
type AccountStatus = core.AccountStatus
type AuditEntry = core.AuditEntry
type Claim = core.Claim
type Quote = core.Quote
type QuoteAttachment = core.QuoteAttachment

type CreateAccountInput = core.CreateAccountInput
type UpdateAccountInput = core.UpdateAccountInput
type DeleteAccountInput = core.DeleteAccountInput
type PurgeExternalIdentityInput = core.PurgeExternalIdentityInput

type CreateClaimInput = core.CreateClaimInput
type SubmitQuoteInput = core.SubmitQuoteInput

type AccountFilter = core.AccountFilter
type AuditFilter = core.AuditFilter

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithIdentityProvider  = core.WithIdentityProvider
	WithNotifier          = core.WithNotifier
	WithAccountStore      = core.WithAccountStore
	WithAuditStore        = core.WithAuditStore
	WithClaimStore        = core.WithClaimStore
	WithQuoteStore        = core.WithQuoteStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
