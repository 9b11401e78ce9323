package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateAccountMessage]         = (*CreateAccountCommand)(nil)
	_ gocmd.Commander[UpdateAccountMessage]         = (*UpdateAccountCommand)(nil)
	_ gocmd.Commander[DeleteAccountMessage]         = (*DeleteAccountCommand)(nil)
	_ gocmd.Commander[PurgeExternalIdentityMessage] = (*PurgeExternalIdentityCommand)(nil)
	_ gocmd.Commander[CreateClaimMessage]           = (*CreateClaimCommand)(nil)
	_ gocmd.Commander[SubmitQuoteMessage]           = (*SubmitQuoteCommand)(nil)
)
