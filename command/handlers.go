package command

import (
	"context"

	"github.com/goliatone/go-claims/core"
	gocmd "github.com/goliatone/go-command"
)

type MutatingService interface {
	CreateAccount(ctx context.Context, in core.CreateAccountInput) (core.Account, error)
	UpdateAccount(ctx context.Context, in core.UpdateAccountInput) (core.Account, error)
	DeleteAccount(ctx context.Context, in core.DeleteAccountInput) error
	PurgeExternalIdentity(ctx context.Context, in core.PurgeExternalIdentityInput) error
	CreateClaim(ctx context.Context, in core.CreateClaimInput) (core.Claim, error)
	SubmitQuote(ctx context.Context, in core.SubmitQuoteInput) (core.Quote, error)
}

type CreateAccountCommand struct {
	service MutatingService
}

func NewCreateAccountCommand(service MutatingService) *CreateAccountCommand {
	return &CreateAccountCommand{service: service}
}

func (c *CreateAccountCommand) Execute(ctx context.Context, msg CreateAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	out, err := c.service.CreateAccount(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateAccountCommand struct {
	service MutatingService
}

func NewUpdateAccountCommand(service MutatingService) *UpdateAccountCommand {
	return &UpdateAccountCommand{service: service}
}

func (c *UpdateAccountCommand) Execute(ctx context.Context, msg UpdateAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	out, err := c.service.UpdateAccount(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteAccountCommand struct {
	service MutatingService
}

func NewDeleteAccountCommand(service MutatingService) *DeleteAccountCommand {
	return &DeleteAccountCommand{service: service}
}

func (c *DeleteAccountCommand) Execute(ctx context.Context, msg DeleteAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	return c.service.DeleteAccount(ctx, msg.Input)
}

type PurgeExternalIdentityCommand struct {
	service MutatingService
}

func NewPurgeExternalIdentityCommand(service MutatingService) *PurgeExternalIdentityCommand {
	return &PurgeExternalIdentityCommand{service: service}
}

func (c *PurgeExternalIdentityCommand) Execute(ctx context.Context, msg PurgeExternalIdentityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	return c.service.PurgeExternalIdentity(ctx, msg.Input)
}

type CreateClaimCommand struct {
	service MutatingService
}

func NewCreateClaimCommand(service MutatingService) *CreateClaimCommand {
	return &CreateClaimCommand{service: service}
}

func (c *CreateClaimCommand) Execute(ctx context.Context, msg CreateClaimMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: claim service is required")
	}
	out, err := c.service.CreateClaim(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SubmitQuoteCommand struct {
	service MutatingService
}

func NewSubmitQuoteCommand(service MutatingService) *SubmitQuoteCommand {
	return &SubmitQuoteCommand{service: service}
}

func (c *SubmitQuoteCommand) Execute(ctx context.Context, msg SubmitQuoteMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: quote service is required")
	}
	out, err := c.service.SubmitQuote(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
