package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type memoryAccountStore struct {
	mu        sync.Mutex
	seq       int
	accounts  map[string]Account
	createErr error
	updateErr error
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: map[string]Account{}}
}

func (s *memoryAccountStore) Create(_ context.Context, in CreateAccountRecordInput) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Account{}, s.createErr
	}
	s.seq++
	now := time.Now().UTC()
	account := Account{
		ID:         fmt.Sprintf("acc-%d", s.seq),
		Role:       in.Role,
		Status:     in.Status,
		ExternalID: in.ExternalID,
		Name:       in.Name,
		Email:      strings.ToLower(in.Email),
		Phone:      in.Phone,
		Address:    in.Address,
		InsurerID:  in.InsurerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.accounts[account.ID] = account
	return account, nil
}

func (s *memoryAccountStore) Get(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok || account.Deleted.IsDeleted() {
		return Account{}, fmt.Errorf("account %q not found", id)
	}
	return account, nil
}

func (s *memoryAccountStore) GetIncludingDeleted(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("account %q not found", id)
	}
	return account, nil
}

func (s *memoryAccountStore) List(_ context.Context, filter AccountFilter) (AccountPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		if account.Deleted.IsDeleted() {
			continue
		}
		if filter.Role != "" && account.Role != filter.Role {
			continue
		}
		items = append(items, account)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 25
	}
	total := len(items)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return AccountPage{
		Items:   items[start:end],
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: end < total,
	}, nil
}

func (s *memoryAccountStore) Update(_ context.Context, id string, in UpdateAccountRecordInput) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return Account{}, s.updateErr
	}
	account, ok := s.accounts[id]
	if !ok || account.Deleted.IsDeleted() {
		return Account{}, fmt.Errorf("account %q not found", id)
	}
	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.Email != nil {
		account.Email = strings.ToLower(*in.Email)
	}
	if in.Phone != nil {
		account.Phone = *in.Phone
	}
	if in.Address != nil {
		account.Address = *in.Address
	}
	if in.Status != nil {
		account.Status = *in.Status
	}
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account
	return account, nil
}

func (s *memoryAccountStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok || account.Deleted.IsDeleted() {
		return fmt.Errorf("account %q not found", id)
	}
	account.Deleted = DeletedAt(at)
	s.accounts[id] = account
	return nil
}

func (s *memoryAccountStore) SetExternalID(_ context.Context, id string, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account %q not found", id)
	}
	account.ExternalID = externalID
	s.accounts[id] = account
	return nil
}

func (s *memoryAccountStore) EmailExists(_ context.Context, email string) (bool, error) {
	return s.emailExists(email, "")
}

func (s *memoryAccountStore) EmailExistsExcluding(_ context.Context, email string, excludeID string) (bool, error) {
	return s.emailExists(email, excludeID)
}

func (s *memoryAccountStore) emailExists(email string, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, account := range s.accounts {
		if account.Deleted.IsDeleted() || account.ID == excludeID {
			continue
		}
		if strings.ToLower(account.Email) == email {
			return true, nil
		}
	}
	return false, nil
}

type memoryAuditStore struct {
	mu        sync.Mutex
	seq       int
	entries   []AuditEntry
	appendErr error
}

func newMemoryAuditStore() *memoryAuditStore {
	return &memoryAuditStore{}
}

func (s *memoryAuditStore) Append(_ context.Context, in AppendAuditEntryInput) (AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return AuditEntry{}, s.appendErr
	}
	s.seq++
	entry := AuditEntry{
		ID:          fmt.Sprintf("audit-%d", s.seq),
		ActorID:     in.ActorID,
		Action:      in.Action,
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		Description: in.Description,
		BeforeJSON:  in.BeforeJSON,
		AfterJSON:   in.AfterJSON,
		RequestMeta: in.RequestMeta,
		CreatedAt:   time.Now().UTC(),
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *memoryAuditStore) List(_ context.Context, filter AuditFilter) (AuditPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]AuditEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		items = append(items, entry)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 25
	}
	total := len(items)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return AuditPage{
		Items:   items[start:end],
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: end < total,
	}, nil
}

func (s *memoryAuditStore) byAction(action AuditAction) []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []AuditEntry{}
	for _, entry := range s.entries {
		if entry.Action == action {
			matched = append(matched, entry)
		}
	}
	return matched
}

type memoryClaimStore struct {
	mu     sync.Mutex
	seq    int
	claims map[string]Claim
}

func newMemoryClaimStore() *memoryClaimStore {
	return &memoryClaimStore{claims: map[string]Claim{}}
}

func (s *memoryClaimStore) Create(_ context.Context, in CreateClaimInput) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := time.Now().UTC()
	claim := Claim{
		ID:         fmt.Sprintf("claim-%d", s.seq),
		Reference:  in.Reference,
		InsurerID:  in.InsurerID,
		ProviderID: in.ProviderID,
		Status:     in.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.claims[claim.ID] = claim
	return claim, nil
}

func (s *memoryClaimStore) Get(_ context.Context, id string) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[id]
	if !ok {
		return Claim{}, fmt.Errorf("claim %q not found", id)
	}
	return claim, nil
}

func (s *memoryClaimStore) ListByInsurer(_ context.Context, insurerID string) ([]Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims := []Claim{}
	for _, claim := range s.claims {
		if claim.InsurerID == insurerID {
			claims = append(claims, claim)
		}
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].ID < claims[j].ID })
	return claims, nil
}

type memoryQuoteStore struct {
	mu     sync.Mutex
	seq    int
	quotes map[string]Quote
}

func newMemoryQuoteStore() *memoryQuoteStore {
	return &memoryQuoteStore{quotes: map[string]Quote{}}
}

func (s *memoryQuoteStore) CreateWithAttachments(_ context.Context, in CreateQuoteInput) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := time.Now().UTC()
	quote := Quote{
		ID:         fmt.Sprintf("quote-%d", s.seq),
		ClaimID:    in.ClaimID,
		ProviderID: in.ProviderID,
		Amount:     in.Amount,
		Currency:   in.Currency,
		Notes:      in.Notes,
		Status:     in.Status,
		CreatedAt:  now,
	}
	for i, attachment := range in.Attachments {
		attachment.ID = fmt.Sprintf("%s-att-%d", quote.ID, i+1)
		attachment.QuoteID = quote.ID
		attachment.CreatedAt = now
		quote.Attachments = append(quote.Attachments, attachment)
	}
	s.quotes[quote.ID] = quote
	return quote, nil
}

func (s *memoryQuoteStore) Get(_ context.Context, id string) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quote, ok := s.quotes[id]
	if !ok {
		return Quote{}, fmt.Errorf("quote %q not found", id)
	}
	return quote, nil
}

func (s *memoryQuoteStore) ListByClaim(_ context.Context, claimID string) ([]Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quotes := []Quote{}
	for _, quote := range s.quotes {
		if quote.ClaimID == claimID {
			quotes = append(quotes, quote)
		}
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].ID < quotes[j].ID })
	return quotes, nil
}

type fakeIdentityProvider struct {
	mu  sync.Mutex
	seq int

	createErr  error
	setRoleErr error
	linkErr    error
	updateErr  error
	disableErr error
	deleteErr  error

	created     []IdentityCreateInput
	roleClaims  map[string]AccountRole
	updates     map[string][]IdentityUpdateInput
	disabledIDs []string
	deletedIDs  []string
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{
		roleClaims: map[string]AccountRole{},
		updates:    map[string][]IdentityUpdateInput{},
	}
}

func (p *fakeIdentityProvider) CreateAccount(_ context.Context, in IdentityCreateInput) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return "", p.createErr
	}
	p.seq++
	p.created = append(p.created, in)
	return fmt.Sprintf("ext-%d", p.seq), nil
}

func (p *fakeIdentityProvider) UpdateAccount(_ context.Context, externalID string, in IdentityUpdateInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.updateErr != nil {
		return p.updateErr
	}
	p.updates[externalID] = append(p.updates[externalID], in)
	return nil
}

func (p *fakeIdentityProvider) SetRoleClaim(_ context.Context, externalID string, role AccountRole) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setRoleErr != nil {
		return p.setRoleErr
	}
	p.roleClaims[externalID] = role
	return nil
}

func (p *fakeIdentityProvider) GenerateEmailVerificationLink(_ context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.linkErr != nil {
		return "", p.linkErr
	}
	return "https://identity.test/verify?email=" + email, nil
}

func (p *fakeIdentityProvider) DisableAccount(_ context.Context, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disableErr != nil {
		return p.disableErr
	}
	p.disabledIDs = append(p.disabledIDs, externalID)
	return nil
}

func (p *fakeIdentityProvider) DeleteAccount(_ context.Context, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deletedIDs = append(p.deletedIDs, externalID)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	sendErr error
	sent    []Notification
}

func (n *fakeNotifier) Send(_ context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, msg)
	return nil
}

type testEnv struct {
	service  *Service
	accounts *memoryAccountStore
	audits   *memoryAuditStore
	claims   *memoryClaimStore
	quotes   *memoryQuoteStore
	identity *fakeIdentityProvider
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T, cfg Config, extra ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: newMemoryAccountStore(),
		audits:   newMemoryAuditStore(),
		claims:   newMemoryClaimStore(),
		quotes:   newMemoryQuoteStore(),
		identity: newFakeIdentityProvider(),
		notifier: &fakeNotifier{},
	}
	options := []Option{
		WithAccountStore(env.accounts),
		WithAuditStore(env.audits),
		WithClaimStore(env.claims),
		WithQuoteStore(env.quotes),
		WithIdentityProvider(env.identity),
		WithNotifier(env.notifier),
	}
	options = append(options, extra...)
	service, err := NewService(cfg, options...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	env.service = service
	return env
}

func (e *testEnv) mustCreateInsurer(t *testing.T, email string) Account {
	t.Helper()
	account, err := e.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:  AccountRoleInsurer,
		Name:  "Acme Underwriting",
		Email: email,
	})
	if err != nil {
		t.Fatalf("CreateAccount(insurer) error = %v", err)
	}
	return account
}

func (e *testEnv) mustCreateProvider(t *testing.T, email string, insurerID string) Account {
	t.Helper()
	account, err := e.service.CreateAccount(context.Background(), CreateAccountInput{
		Role:      AccountRoleProvider,
		Name:      "Rapid Repairs",
		Email:     email,
		InsurerID: insurerID,
	})
	if err != nil {
		t.Fatalf("CreateAccount(provider) error = %v", err)
	}
	return account
}
