package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func assertCategory(t *testing.T, err error, category goerrors.Category) *goerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error with category %q, got nil", category)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected a rich error, got %T: %v", err, err)
	}
	if richErr.Category != category {
		t.Fatalf("expected category %q, got %q (%v)", category, richErr.Category, err)
	}
	return richErr
}

func TestCreateAccountProvisionsIdentityAndPersists(t *testing.T) {
	env := newTestEnv(t, Config{})

	account, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "  Acme Underwriting ",
		Email: " Ops@Acme.Example ",
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if account.ID == "" {
		t.Fatal("expected a persisted account id")
	}
	if account.Email != "ops@acme.example" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.Name != "Acme Underwriting" {
		t.Fatalf("expected trimmed name, got %q", account.Name)
	}
	if account.Status != AccountStatusActive {
		t.Fatalf("expected active status, got %q", account.Status)
	}
	if account.ExternalID == "" {
		t.Fatal("expected an external identity id")
	}

	if len(env.identity.created) != 1 {
		t.Fatalf("expected 1 identity create, got %d", len(env.identity.created))
	}
	created := env.identity.created[0]
	if created.Email != "ops@acme.example" {
		t.Fatalf("identity created with email %q", created.Email)
	}
	if created.Password == "" {
		t.Fatal("expected a generated temporary password")
	}
	if created.EmailVerified || created.Disabled {
		t.Fatal("new identity must be unverified and enabled")
	}
	if role := env.identity.roleClaims[account.ExternalID]; role != AccountRoleInsurer {
		t.Fatalf("expected insurer role claim, got %q", role)
	}

	if len(env.notifier.sent) != 1 {
		t.Fatalf("expected 1 welcome email, got %d", len(env.notifier.sent))
	}
	welcome := env.notifier.sent[0]
	if welcome.To != "ops@acme.example" {
		t.Fatalf("welcome email addressed to %q", welcome.To)
	}
	if !strings.Contains(welcome.Text, created.Password) {
		t.Fatal("welcome email must carry the temporary password")
	}
	if !strings.Contains(welcome.Text, "verify") && !strings.Contains(welcome.Text, "Verify") {
		t.Fatal("welcome email must carry the verification link")
	}

	creates := env.audits.byAction(AuditActionCreate)
	if len(creates) != 1 {
		t.Fatalf("expected 1 create audit entry, got %d", len(creates))
	}
	if creates[0].EntityID != account.ID {
		t.Fatalf("audit entry for %q, want %q", creates[0].EntityID, account.ID)
	}
}

func TestCreateAccountDuplicateEmailIsConflict(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.mustCreateInsurer(t, "ops@acme.example")

	identityCreates := len(env.identity.created)
	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Duplicate",
		Email: "OPS@ACME.EXAMPLE",
	})
	richErr := assertCategory(t, err, goerrors.CategoryConflict)
	if richErr.TextCode != ClaimsErrorAlreadyExists {
		t.Fatalf("expected text code %q, got %q", ClaimsErrorAlreadyExists, richErr.TextCode)
	}
	if len(env.identity.created) != identityCreates {
		t.Fatal("duplicate email must be rejected before the identity provider is called")
	}
}

func TestCreateAccountExternalConflictIsConflict(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.identity.createErr = fmt.Errorf("identity rejected create: %w", ErrExternalAccountExists)

	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	assertCategory(t, err, goerrors.CategoryConflict)
	if len(env.accounts.accounts) != 0 {
		t.Fatal("no durable record must exist after a rejected identity create")
	}
}

func TestCreateAccountProviderFailureIsExternal(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.identity.createErr = fmt.Errorf("upstream unavailable")

	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	richErr := assertCategory(t, err, goerrors.CategoryExternal)
	if richErr.TextCode != ClaimsErrorProviderFailed {
		t.Fatalf("expected text code %q, got %q", ClaimsErrorProviderFailed, richErr.TextCode)
	}
}

func TestCreateAccountCompensatesWhenPersistenceFails(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.accounts.createErr = fmt.Errorf("insert failed")

	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	if err == nil {
		t.Fatal("expected the create to fail")
	}
	if len(env.identity.deletedIDs) != 1 {
		t.Fatalf("expected 1 compensating identity delete, got %d", len(env.identity.deletedIDs))
	}
	if env.identity.deletedIDs[0] != "ext-1" {
		t.Fatalf("compensated wrong identity %q", env.identity.deletedIDs[0])
	}
	if len(env.notifier.sent) != 0 {
		t.Fatal("no welcome email after a failed create")
	}
}

func TestCreateAccountRecordsFailedCompensation(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.accounts.createErr = fmt.Errorf("insert failed")
	env.identity.deleteErr = fmt.Errorf("identity unreachable")

	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	if err == nil {
		t.Fatal("expected the create to fail")
	}

	orphans := env.audits.byAction(AuditActionCompensationFailed)
	if len(orphans) != 1 {
		t.Fatalf("expected 1 compensation_failed audit entry, got %d", len(orphans))
	}
	if orphans[0].EntityID != "ext-1" {
		t.Fatalf("orphan entry for %q, want ext-1", orphans[0].EntityID)
	}
}

func TestCreateAccountRoleClaimFailureBestEffort(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.identity.setRoleErr = fmt.Errorf("claims endpoint down")

	account, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	if err != nil {
		t.Fatalf("best-effort policy must tolerate a failed role claim: %v", err)
	}
	if account.ID == "" {
		t.Fatal("expected a persisted account")
	}
	if len(env.identity.deletedIDs) != 0 {
		t.Fatal("best-effort policy must not compensate")
	}
}

func TestCreateAccountRoleClaimFailureFailFast(t *testing.T) {
	cfg := Config{}
	cfg.Provisioning.ClaimPolicy = string(ClaimPolicyFailFast)
	env := newTestEnv(t, cfg)
	env.identity.setRoleErr = fmt.Errorf("claims endpoint down")

	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	assertCategory(t, err, goerrors.CategoryExternal)
	if len(env.identity.deletedIDs) != 1 {
		t.Fatalf("fail-fast policy must compensate, got %d deletes", len(env.identity.deletedIDs))
	}
	if len(env.accounts.accounts) != 0 {
		t.Fatal("no durable record must survive a fail-fast abort")
	}
}

func TestCreateAccountVerificationLinkFailureContinues(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.identity.linkErr = fmt.Errorf("link service down")

	account, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	if err != nil {
		t.Fatalf("link generation is best effort: %v", err)
	}
	if len(env.notifier.sent) != 1 {
		t.Fatal("welcome email still goes out without a link")
	}
	if strings.Contains(env.notifier.sent[0].Text, "https://identity.test/verify") {
		t.Fatal("email must not carry a link that was never generated")
	}
	if account.ExternalID == "" {
		t.Fatal("expected an external identity id")
	}
}

func TestCreateAccountNotifierFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.notifier.sendErr = fmt.Errorf("smtp relay down")

	account, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme",
		Email: "ops@acme.example",
	})
	if err != nil {
		t.Fatalf("notification delivery is best effort: %v", err)
	}
	if _, getErr := env.service.GetAccount(context.Background(), account.ID); getErr != nil {
		t.Fatalf("account must be retrievable after a failed email: %v", getErr)
	}
}

func TestCreateAccountProviderRequiresExistingInsurer(t *testing.T) {
	env := newTestEnv(t, Config{})

	_, err := env.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:      AccountRoleProvider,
		Name:      "Rapid Repairs",
		Email:     "dispatch@rapid.example",
		InsurerID: "acc-missing",
	})
	assertCategory(t, err, goerrors.CategoryValidation)
	if len(env.identity.created) != 0 {
		t.Fatal("parent validation must run before any external call")
	}
}

func TestCreateAccountProviderWithParentInsurer(t *testing.T) {
	env := newTestEnv(t, Config{})
	insurer := env.mustCreateInsurer(t, "ops@acme.example")

	provider := env.mustCreateProvider(t, "dispatch@rapid.example", insurer.ID)
	if provider.InsurerID != insurer.ID {
		t.Fatalf("provider linked to %q, want %q", provider.InsurerID, insurer.ID)
	}
	if role := env.identity.roleClaims[provider.ExternalID]; role != AccountRoleProvider {
		t.Fatalf("expected provider role claim, got %q", role)
	}
}

func TestCreateAccountRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, Config{})
	cases := []struct {
		name  string
		input CreateAccountInput
	}{
		{"missing role", CreateAccountInput{Name: "A", Email: "a@b.example"}},
		{"unknown role", CreateAccountInput{Role: "superuser", Name: "A", Email: "a@b.example"}},
		{"missing name", CreateAccountInput{Role: AccountRoleAdmin, Email: "a@b.example"}},
		{"missing email", CreateAccountInput{Role: AccountRoleAdmin, Name: "A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.service.CreateAccount(context.Background(), tc.input); err == nil {
				t.Fatal("expected a validation failure")
			}
			if len(env.identity.created) != 0 {
				t.Fatal("invalid input must never reach the identity provider")
			}
		})
	}
}

func TestUpdateAccountAppliesPartialChanges(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")

	phone := " +44 20 7946 0000 "
	updated, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:    account.ID,
		Phone: &phone,
	})
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if updated.Phone != "+44 20 7946 0000" {
		t.Fatalf("expected trimmed phone, got %q", updated.Phone)
	}
	if updated.Name != account.Name || updated.Email != account.Email {
		t.Fatal("untouched fields must survive a partial update")
	}
	if len(env.identity.updates[account.ExternalID]) != 0 {
		t.Fatal("phone changes must not propagate to the identity provider")
	}
}

func TestUpdateAccountPropagatesEmailChange(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")

	email := "Billing@Acme.Example"
	updated, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:    account.ID,
		Email: &email,
	})
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if updated.Email != "billing@acme.example" {
		t.Fatalf("expected normalized email, got %q", updated.Email)
	}
	pushes := env.identity.updates[account.ExternalID]
	if len(pushes) != 1 {
		t.Fatalf("expected 1 identity propagation, got %d", len(pushes))
	}
	if pushes[0].Email == nil || *pushes[0].Email != "billing@acme.example" {
		t.Fatal("propagation must carry the new email")
	}
}

func TestUpdateAccountPropagationFailureDoesNotRollBack(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")
	env.identity.updateErr = fmt.Errorf("identity timeout")

	email := "billing@acme.example"
	updated, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:    account.ID,
		Email: &email,
	})
	if err != nil {
		t.Fatalf("propagation is best effort: %v", err)
	}
	stored, err := env.service.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if stored.Email != "billing@acme.example" || updated.Email != stored.Email {
		t.Fatal("the durable update must stand even when propagation fails")
	}
}

func TestUpdateAccountEmailConflict(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.mustCreateInsurer(t, "ops@acme.example")
	other := env.mustCreateInsurer(t, "billing@acme.example")

	email := "ops@acme.example"
	_, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:    other.ID,
		Email: &email,
	})
	assertCategory(t, err, goerrors.CategoryConflict)
}

func TestUpdateAccountNotFound(t *testing.T) {
	env := newTestEnv(t, Config{})
	name := "Someone"
	_, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:   "acc-missing",
		Name: &name,
	})
	assertCategory(t, err, goerrors.CategoryNotFound)
}

func TestUpdateAccountRoleMismatchIsNotFound(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")

	name := "Someone"
	_, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:           account.ID,
		ExpectedRole: AccountRoleProvider,
		Name:         &name,
	})
	assertCategory(t, err, goerrors.CategoryNotFound)
}

func TestUpdateAccountNoChangesIsNoOp(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")

	same := account.Name
	updated, err := env.service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:   account.ID,
		Name: &same,
	})
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if updated.UpdatedAt != account.UpdatedAt {
		t.Fatal("a no-op update must not touch the record")
	}
	if len(env.audits.byAction(AuditActionUpdate)) != 0 {
		t.Fatal("a no-op update must not write an audit entry")
	}
}

func TestDeleteAccountSoftDeletesAndDisablesIdentity(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")

	if err := env.service.DeleteAccount(context.Background(), DeleteAccountInput{ID: account.ID}); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if _, err := env.service.GetAccount(context.Background(), account.ID); err == nil {
		t.Fatal("a deleted account must not be retrievable")
	}
	if len(env.identity.disabledIDs) != 1 || env.identity.disabledIDs[0] != account.ExternalID {
		t.Fatalf("expected the external identity to be disabled, got %v", env.identity.disabledIDs)
	}
	if len(env.identity.deletedIDs) != 0 {
		t.Fatal("soft delete must never destroy the external identity")
	}

	err := env.service.DeleteAccount(context.Background(), DeleteAccountInput{ID: account.ID})
	assertCategory(t, err, goerrors.CategoryNotFound)
}

func TestDeleteAccountDisableFailureIsBestEffort(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")
	env.identity.disableErr = fmt.Errorf("identity unreachable")

	if err := env.service.DeleteAccount(context.Background(), DeleteAccountInput{ID: account.ID}); err != nil {
		t.Fatalf("disable is best effort: %v", err)
	}
	if _, err := env.service.GetAccount(context.Background(), account.ID); err == nil {
		t.Fatal("the soft delete must stand even when disable fails")
	}
}

func TestDeletedEmailIsReusable(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")
	if err := env.service.DeleteAccount(context.Background(), DeleteAccountInput{ID: account.ID}); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	replacement := env.mustCreateInsurer(t, "ops@acme.example")
	if replacement.ID == account.ID {
		t.Fatal("expected a fresh account record")
	}
}

func TestPurgeExternalIdentity(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")
	if err := env.service.DeleteAccount(context.Background(), DeleteAccountInput{ID: account.ID}); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if err := env.service.PurgeExternalIdentity(context.Background(), PurgeExternalIdentityInput{
		AccountID: account.ID,
	}); err != nil {
		t.Fatalf("PurgeExternalIdentity() error = %v", err)
	}
	if len(env.identity.deletedIDs) != 1 || env.identity.deletedIDs[0] != account.ExternalID {
		t.Fatalf("expected the external identity to be deleted, got %v", env.identity.deletedIDs)
	}
	stored, err := env.accounts.GetIncludingDeleted(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetIncludingDeleted() error = %v", err)
	}
	if stored.ExternalID != "" {
		t.Fatalf("expected the external id to be cleared, got %q", stored.ExternalID)
	}

	purges := env.audits.byAction(AuditActionPurge)
	if len(purges) != 1 {
		t.Fatalf("expected 1 purge audit entry, got %d", len(purges))
	}
}

func TestPurgeExternalIdentityAlreadyRemoved(t *testing.T) {
	env := newTestEnv(t, Config{})
	account := env.mustCreateInsurer(t, "ops@acme.example")
	if err := env.service.DeleteAccount(context.Background(), DeleteAccountInput{ID: account.ID}); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	// the external record disappeared out of band
	env.identity.deleteErr = fmt.Errorf("delete %s: %w", account.ExternalID, ErrExternalAccountNotFound)
	if err := env.service.PurgeExternalIdentity(context.Background(), PurgeExternalIdentityInput{
		AccountID: account.ID,
	}); err != nil {
		t.Fatalf("PurgeExternalIdentity() error = %v", err)
	}
	stored, err := env.accounts.GetIncludingDeleted(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetIncludingDeleted() error = %v", err)
	}
	if stored.ExternalID != "" {
		t.Fatalf("expected the external id to be cleared, got %q", stored.ExternalID)
	}
	if len(env.audits.byAction(AuditActionPurge)) != 1 {
		t.Fatal("expected the purge to be audited")
	}
}

func TestListAccountsFiltersByRole(t *testing.T) {
	env := newTestEnv(t, Config{})
	insurer := env.mustCreateInsurer(t, "ops@acme.example")
	env.mustCreateProvider(t, "dispatch@rapid.example", insurer.ID)
	env.mustCreateProvider(t, "crew@fixit.example", insurer.ID)

	page, err := env.service.ListAccounts(context.Background(), AccountFilter{
		Role: AccountRoleProvider,
	})
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 providers, got %d", page.Total)
	}
	for _, item := range page.Items {
		if item.Role != AccountRoleProvider {
			t.Fatalf("unexpected role %q in filtered page", item.Role)
		}
	}
}

func TestUpdatePropagationUsesBoundedTimeout(t *testing.T) {
	cfg := Config{}
	cfg.Provisioning.PropagationTimeout = 25 * time.Millisecond
	env := newTestEnv(t, cfg)
	account := env.mustCreateInsurer(t, "ops@acme.example")

	slow := &slowIdentityProvider{fakeIdentityProvider: env.identity, delay: 250 * time.Millisecond}
	deps := []Option{
		WithAccountStore(env.accounts),
		WithAuditStore(env.audits),
		WithIdentityProvider(slow),
		WithNotifier(env.notifier),
	}
	service, err := NewService(cfg, deps...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	email := "billing@acme.example"
	start := time.Now()
	if _, err := service.UpdateAccount(context.Background(), UpdateAccountInput{
		ID:    account.ID,
		Email: &email,
	}); err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("propagation must be bounded by the configured timeout, took %s", elapsed)
	}
}

type slowIdentityProvider struct {
	*fakeIdentityProvider
	delay time.Duration
}

func (p *slowIdentityProvider) UpdateAccount(ctx context.Context, externalID string, in IdentityUpdateInput) error {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.fakeIdentityProvider.UpdateAccount(ctx, externalID, in)
}
