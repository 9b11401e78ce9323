package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const accountEntityType = "account"

// CreateAccount provisions an account across the durable store and the
// external identity provider. The identity record is created first; if the
// durable insert then fails the external record is deleted again, so no
// orphaned identity survives a failed create. The uniqueness pre-check is an
// optimization for a friendly conflict error, the unique index on email is
// the real enforcement.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	startedAt := time.Now().UTC()
	account, err := s.createAccount(ctx, in)
	s.observeOperation(ctx, startedAt, "account_create", err, map[string]any{
		"role":  string(in.Role),
		"email": strings.TrimSpace(strings.ToLower(in.Email)),
	})
	return account, err
}

func (s *Service) createAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	if err := s.requireStores(); err != nil {
		return Account{}, s.mapError(err)
	}
	if s.identityProvider == nil {
		return Account{}, s.mapError(fmt.Errorf("core: identity provider is required"))
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.InsurerID = strings.TrimSpace(in.InsurerID)

	if err := in.Role.Validate(); err != nil {
		return Account{}, s.mapError(err)
	}
	if in.Name == "" {
		return Account{}, s.validationError("name is required", nil)
	}
	if in.Email == "" {
		return Account{}, s.validationError("email is required", nil)
	}
	if in.Role == AccountRoleProvider {
		if in.InsurerID == "" {
			return Account{}, s.validationError("insurer id is required for provider accounts", nil)
		}
		parent, err := s.accountStore.Get(ctx, in.InsurerID)
		if err != nil || parent.Role != AccountRoleInsurer {
			return Account{}, s.validationError(
				fmt.Sprintf("insurer %q does not exist", in.InsurerID),
				map[string]any{"insurer_id": in.InsurerID},
			)
		}
	}

	exists, err := s.accountStore.EmailExists(ctx, in.Email)
	if err != nil {
		return Account{}, s.mapError(err)
	}
	if exists {
		return Account{}, s.conflictError(
			fmt.Sprintf("an account with email %q already exists", in.Email),
			map[string]any{"email": in.Email},
		)
	}

	password, err := GeneratePassword(s.config.passwordLength())
	if err != nil {
		return Account{}, s.mapError(err)
	}

	externalID, err := s.identityProvider.CreateAccount(ctx, IdentityCreateInput{
		Email:         in.Email,
		Password:      password,
		DisplayName:   in.Name,
		EmailVerified: false,
		Disabled:      false,
	})
	if err != nil {
		if errors.Is(err, ErrExternalAccountExists) {
			return Account{}, s.conflictError(
				fmt.Sprintf("an identity for email %q already exists", in.Email),
				map[string]any{"email": in.Email},
			)
		}
		return Account{}, s.externalError("identity provider account creation failed", err, map[string]any{
			"email": in.Email,
		})
	}

	if err := s.identityProvider.SetRoleClaim(ctx, externalID, in.Role); err != nil {
		if s.config.claimPolicy() == ClaimPolicyFailFast {
			s.compensateExternalIdentity(ctx, externalID, in.Email)
			return Account{}, s.externalError("role claim assignment failed", err, map[string]any{
				"external_id": externalID,
				"role":        string(in.Role),
			})
		}
		s.logWarn(ctx, "role claim assignment failed, continuing", map[string]any{
			"external_id": externalID,
			"role":        string(in.Role),
			"error":       err.Error(),
		})
	}

	verificationLink := ""
	if link, linkErr := s.identityProvider.GenerateEmailVerificationLink(ctx, in.Email); linkErr != nil {
		s.logWarn(ctx, "email verification link generation failed, continuing", map[string]any{
			"external_id": externalID,
			"email":       in.Email,
			"error":       linkErr.Error(),
		})
	} else {
		verificationLink = link
	}

	account, err := s.accountStore.Create(ctx, CreateAccountRecordInput{
		Role:       in.Role,
		Status:     AccountStatusActive,
		ExternalID: externalID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		InsurerID:  in.InsurerID,
	})
	if err != nil {
		s.compensateExternalIdentity(ctx, externalID, in.Email)
		return Account{}, s.mapError(err)
	}

	s.sendNotification(ctx, welcomeNotification(account, password, verificationLink), map[string]any{
		"account_id": account.ID,
		"template":   "welcome",
	})

	if _, auditErr := s.recordAudit(ctx, AppendAuditEntryInput{
		ActorID:     in.ActorID,
		Action:      AuditActionCreate,
		EntityType:  accountEntityType,
		EntityID:    account.ID,
		Description: fmt.Sprintf("created %s account %s", account.Role, account.Email),
		AfterJSON:   snapshotJSON(accountSnapshot(account)),
		RequestMeta: in.RequestMeta,
	}); auditErr != nil {
		return Account{}, s.mapError(auditErr)
	}

	return account, nil
}

// compensateExternalIdentity deletes an external identity created earlier in
// a provisioning attempt that cannot complete. A failed compensation leaves
// an orphan only an operator can remove, so it is logged at error severity
// with operator_action_required and recorded through the audit log for the
// reconciler to pick up.
func (s *Service) compensateExternalIdentity(ctx context.Context, externalID string, email string) {
	if s == nil || s.identityProvider == nil || strings.TrimSpace(externalID) == "" {
		return
	}
	err := s.identityProvider.DeleteAccount(ctx, externalID)
	if err == nil || errors.Is(err, ErrExternalAccountNotFound) {
		s.logInfo(ctx, "compensated external identity after failed provisioning", map[string]any{
			"external_id": externalID,
			"email":       email,
		})
		return
	}
	s.logError(ctx, "failed to delete orphaned external identity", map[string]any{
		"external_id":              externalID,
		"email":                    email,
		"error":                    err.Error(),
		"operator_action_required": true,
	})
	if s.auditStore == nil {
		return
	}
	if _, err := s.auditStore.Append(ctx, AppendAuditEntryInput{
		Action:      AuditActionCompensationFailed,
		EntityType:  accountEntityType,
		EntityID:    externalID,
		Description: fmt.Sprintf("orphaned external identity %s (%s) requires cleanup", externalID, email),
		RequestMeta: map[string]any{"external_id": externalID, "email": email},
	}); err != nil {
		s.logError(ctx, "failed to record compensation failure", map[string]any{
			"external_id": externalID,
			"error":       err.Error(),
		})
	}
}

// UpdateAccount applies a partial update. The durable write commits first;
// propagation of email or display-name changes to the identity provider is
// best effort under a short timeout and never rolls the commit back.
func (s *Service) UpdateAccount(ctx context.Context, in UpdateAccountInput) (Account, error) {
	startedAt := time.Now().UTC()
	account, err := s.updateAccount(ctx, in)
	s.observeOperation(ctx, startedAt, "account_update", err, map[string]any{
		"account_id": strings.TrimSpace(in.ID),
		"role":       string(in.ExpectedRole),
	})
	return account, err
}

func (s *Service) updateAccount(ctx context.Context, in UpdateAccountInput) (Account, error) {
	if err := s.requireStores(); err != nil {
		return Account{}, s.mapError(err)
	}
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return Account{}, s.validationError("account id is required", nil)
	}

	current, err := s.accountStore.Get(ctx, in.ID)
	if err != nil {
		return Account{}, s.notFoundError(in.ID)
	}
	if in.ExpectedRole != "" && current.Role != in.ExpectedRole {
		return Account{}, s.notFoundError(in.ID)
	}

	update := UpdateAccountRecordInput{}
	before := map[string]any{}
	after := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Account{}, s.validationError("name cannot be empty", nil)
		}
		if name != current.Name {
			update.Name = &name
			before["name"] = current.Name
			after["name"] = name
		}
	}
	emailChanged := false
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" {
			return Account{}, s.validationError("email cannot be empty", nil)
		}
		if email != current.Email {
			taken, existsErr := s.accountStore.EmailExistsExcluding(ctx, email, current.ID)
			if existsErr != nil {
				return Account{}, s.mapError(existsErr)
			}
			if taken {
				return Account{}, s.conflictError(
					fmt.Sprintf("an account with email %q already exists", email),
					map[string]any{"email": email},
				)
			}
			update.Email = &email
			before["email"] = current.Email
			after["email"] = email
			emailChanged = true
		}
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != current.Phone {
			update.Phone = &phone
			before["phone"] = current.Phone
			after["phone"] = phone
		}
	}
	if in.Address != nil {
		address := strings.TrimSpace(*in.Address)
		if address != current.Address {
			update.Address = &address
			before["address"] = current.Address
			after["address"] = address
		}
	}

	if len(after) == 0 {
		return current, nil
	}

	updated, err := s.accountStore.Update(ctx, current.ID, update)
	if err != nil {
		return Account{}, s.mapError(err)
	}

	nameChanged := update.Name != nil
	if (emailChanged || nameChanged) && strings.TrimSpace(current.ExternalID) != "" {
		s.propagateIdentityUpdate(ctx, current.ExternalID, IdentityUpdateInput{
			Email:       update.Email,
			DisplayName: update.Name,
		})
	}

	if _, auditErr := s.recordAudit(ctx, AppendAuditEntryInput{
		ActorID:     in.ActorID,
		Action:      AuditActionUpdate,
		EntityType:  accountEntityType,
		EntityID:    updated.ID,
		Description: fmt.Sprintf("updated %s account %s", updated.Role, updated.Email),
		BeforeJSON:  snapshotJSON(before),
		AfterJSON:   snapshotJSON(after),
		RequestMeta: in.RequestMeta,
	}); auditErr != nil {
		s.logWarn(ctx, "audit append failed for account update", map[string]any{
			"account_id": updated.ID,
			"error":      auditErr.Error(),
		})
	}

	return updated, nil
}

// propagateIdentityUpdate pushes email/display-name changes to the identity
// provider under a bounded timeout. A slow or unreachable provider must not
// hold the request: failures and timeouts are logged and dropped.
func (s *Service) propagateIdentityUpdate(ctx context.Context, externalID string, in IdentityUpdateInput) {
	if s == nil || s.identityProvider == nil {
		return
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, s.config.propagationTimeout())
	defer cancel()

	if err := s.identityProvider.UpdateAccount(timeoutCtx, externalID, in); err != nil {
		s.logWarn(ctx, "identity provider propagation failed, durable update already committed", map[string]any{
			"external_id": externalID,
			"timeout":     s.config.propagationTimeout().String(),
			"error":       err.Error(),
		})
	}
}

// DeleteAccount soft deletes the durable record and disables (never deletes)
// the external identity. Deleting an account that is already gone reports
// NotFound rather than a second success.
func (s *Service) DeleteAccount(ctx context.Context, in DeleteAccountInput) error {
	startedAt := time.Now().UTC()
	err := s.deleteAccount(ctx, in)
	s.observeOperation(ctx, startedAt, "account_delete", err, map[string]any{
		"account_id": strings.TrimSpace(in.ID),
	})
	return err
}

func (s *Service) deleteAccount(ctx context.Context, in DeleteAccountInput) error {
	if err := s.requireStores(); err != nil {
		return s.mapError(err)
	}
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return s.validationError("account id is required", nil)
	}

	current, err := s.accountStore.Get(ctx, in.ID)
	if err != nil {
		return s.notFoundError(in.ID)
	}
	if in.ExpectedRole != "" && current.Role != in.ExpectedRole {
		return s.notFoundError(in.ID)
	}

	if err := s.accountStore.SoftDelete(ctx, current.ID, time.Now().UTC()); err != nil {
		return s.mapError(err)
	}

	if s.identityProvider != nil && strings.TrimSpace(current.ExternalID) != "" {
		if disableErr := s.identityProvider.DisableAccount(ctx, current.ExternalID); disableErr != nil {
			s.logWarn(ctx, "failed to disable external identity for deleted account", map[string]any{
				"account_id":  current.ID,
				"external_id": current.ExternalID,
				"error":       disableErr.Error(),
			})
		}
	}

	if _, auditErr := s.recordAudit(ctx, AppendAuditEntryInput{
		ActorID:     in.ActorID,
		Action:      AuditActionDelete,
		EntityType:  accountEntityType,
		EntityID:    current.ID,
		Description: fmt.Sprintf("deleted %s account %s", current.Role, current.Email),
		BeforeJSON:  snapshotJSON(accountSnapshot(current)),
		RequestMeta: in.RequestMeta,
	}); auditErr != nil {
		s.logWarn(ctx, "audit append failed for account delete", map[string]any{
			"account_id": current.ID,
			"error":      auditErr.Error(),
		})
	}

	return nil
}

// PurgeExternalIdentity permanently deletes the identity-provider record for
// an account. Soft delete only disables the external record; this is the
// separate, explicit administrative action that destroys it.
func (s *Service) PurgeExternalIdentity(ctx context.Context, in PurgeExternalIdentityInput) error {
	startedAt := time.Now().UTC()
	err := s.purgeExternalIdentity(ctx, in)
	s.observeOperation(ctx, startedAt, "account_purge_external", err, map[string]any{
		"account_id": strings.TrimSpace(in.AccountID),
	})
	return err
}

func (s *Service) purgeExternalIdentity(ctx context.Context, in PurgeExternalIdentityInput) error {
	if err := s.requireStores(); err != nil {
		return s.mapError(err)
	}
	if s.identityProvider == nil {
		return s.mapError(fmt.Errorf("core: identity provider is required"))
	}
	in.AccountID = strings.TrimSpace(in.AccountID)
	if in.AccountID == "" {
		return s.validationError("account id is required", nil)
	}

	current, err := s.accountStore.GetIncludingDeleted(ctx, in.AccountID)
	if err != nil {
		return s.notFoundError(in.AccountID)
	}
	if strings.TrimSpace(current.ExternalID) == "" {
		return s.validationError("account has no external identity", map[string]any{
			"account_id": current.ID,
		})
	}

	if err := s.identityProvider.DeleteAccount(ctx, current.ExternalID); err != nil {
		if !errors.Is(err, ErrExternalAccountNotFound) {
			return s.externalError("identity provider deletion failed", err, map[string]any{
				"account_id":  current.ID,
				"external_id": current.ExternalID,
			})
		}
		s.logInfo(ctx, "external identity already removed, clearing reference", map[string]any{
			"account_id":  current.ID,
			"external_id": current.ExternalID,
		})
	}
	if err := s.accountStore.SetExternalID(ctx, current.ID, ""); err != nil {
		return s.mapError(err)
	}

	if _, auditErr := s.recordAudit(ctx, AppendAuditEntryInput{
		ActorID:     in.ActorID,
		Action:      AuditActionPurge,
		EntityType:  accountEntityType,
		EntityID:    current.ID,
		Description: fmt.Sprintf("purged external identity %s for account %s", current.ExternalID, current.Email),
		RequestMeta: in.RequestMeta,
	}); auditErr != nil {
		s.logWarn(ctx, "audit append failed for external identity purge", map[string]any{
			"account_id": current.ID,
			"error":      auditErr.Error(),
		})
	}

	return nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	if err := s.requireStores(); err != nil {
		return Account{}, s.mapError(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Account{}, s.validationError("account id is required", nil)
	}
	account, err := s.accountStore.Get(ctx, id)
	if err != nil {
		return Account{}, s.notFoundError(id)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context, filter AccountFilter) (AccountPage, error) {
	if err := s.requireStores(); err != nil {
		return AccountPage{}, s.mapError(err)
	}
	if filter.Role != "" {
		if err := filter.Role.Validate(); err != nil {
			return AccountPage{}, s.mapError(err)
		}
	}
	page, err := s.accountStore.List(ctx, filter)
	if err != nil {
		return AccountPage{}, s.mapError(err)
	}
	return page, nil
}

func (s *Service) sendNotification(ctx context.Context, msg Notification, fields map[string]any) {
	if s == nil || s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		merged := cloneFields(fields)
		merged["error"] = err.Error()
		s.logWarn(ctx, "notification delivery failed, continuing", merged)
	}
}

func (s *Service) conflictError(message string, metadata map[string]any) error {
	wrapped := s.errorFactory(message, goerrors.CategoryConflict).
		WithTextCode(ClaimsErrorAlreadyExists)
	if len(metadata) > 0 {
		wrapped = wrapped.WithMetadata(metadata)
	}
	return ensureClaimsErrorEnvelope(wrapped)
}

func (s *Service) notFoundError(id string) error {
	wrapped := s.errorFactory(
		fmt.Sprintf("account %q was not found", id),
		goerrors.CategoryNotFound,
	).WithTextCode(ClaimsErrorNotFound)
	return ensureClaimsErrorEnvelope(wrapped.WithMetadata(map[string]any{"account_id": id}))
}

func (s *Service) validationError(message string, metadata map[string]any) error {
	wrapped := s.errorFactory(message, goerrors.CategoryValidation).
		WithTextCode(ClaimsErrorValidationFailed)
	if len(metadata) > 0 {
		wrapped = wrapped.WithMetadata(metadata)
	}
	return ensureClaimsErrorEnvelope(wrapped)
}

func (s *Service) externalError(message string, cause error, metadata map[string]any) error {
	wrapped := goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithTextCode(ClaimsErrorProviderFailed)
	if len(metadata) > 0 {
		wrapped = wrapped.WithMetadata(metadata)
	}
	return ensureClaimsErrorEnvelope(wrapped)
}

func accountSnapshot(account Account) map[string]any {
	return map[string]any{
		"id":          account.ID,
		"role":        string(account.Role),
		"status":      string(account.Status),
		"external_id": account.ExternalID,
		"name":        account.Name,
		"email":       account.Email,
		"phone":       account.Phone,
		"address":     account.Address,
		"insurer_id":  account.InsurerID,
	}
}

func snapshotJSON(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(encoded)
}
