package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/infra/cache"
	"github.com/eventpay/connect-go/internal/infra/observability"
	"github.com/eventpay/connect-go/internal/port"
	"github.com/eventpay/connect-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

// mockProcessor implements port.ProcessorClient with per-method hooks and
// records every call so tests can assert that no network round trip
// happened for local precondition failures.
type mockProcessor struct {
	mu    sync.Mutex
	calls []string

	account        *domain.ConnectedAccount
	accountErr     error
	accountGate    chan struct{}
	createdAccount string
	createErr      error
	link           *domain.OnboardingLink
	linkErr        error
	capErr         error
	updateErr      error
	tosErr         error

	payable    *domain.PayableBalance
	payableErr error
	issuing    *domain.Money
	issuingErr error
	topUpErr   error
	txPage     *domain.TransactionPage
	txErr      error

	cardholderID    string
	cardholderErr   error
	cardholder      *domain.Cardholder
	getCardholder   error
	card            *domain.VirtualCard
	cardErr         error
	existingCard    *domain.VirtualCard
	existingCardErr error

	payout     *domain.Payout
	payoutErr  error
	payoutPage *domain.PayoutPage
	payoutsErr error

	bankAccountID  string
	bankAccountErr error

	// lastCardholder captures what was sent upstream, for the phone and
	// dob substitution assertions.
	lastCardholder domain.Cardholder
	lastTopUpKey   string
	lastPayoutKey  string
	lastCardReq    domain.VirtualCardRequest
	lastPayout     int64
}

func (m *mockProcessor) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockProcessor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProcessor) CreateAccount(_ context.Context, _ string, _ domain.OnboardingProfile) (string, error) {
	m.record("CreateAccount")
	return m.createdAccount, m.createErr
}

func (m *mockProcessor) GetAccount(_ context.Context, _ string) (*domain.ConnectedAccount, error) {
	m.record("GetAccount")
	if m.accountGate != nil {
		<-m.accountGate
	}
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	// Return a copy: the service stamps OwnerID onto the snapshot.
	cp := *m.account
	return &cp, nil
}

func (m *mockProcessor) CreateOnboardingLink(_ context.Context, _ string) (*domain.OnboardingLink, error) {
	m.record("CreateOnboardingLink")
	return m.link, m.linkErr
}

func (m *mockProcessor) RequestCapabilities(_ context.Context, _ string, _ []domain.CapabilityName) error {
	m.record("RequestCapabilities")
	return m.capErr
}

func (m *mockProcessor) UpdateAccountInfo(_ context.Context, _ string, _ domain.AccountInfoPatch) error {
	m.record("UpdateAccountInfo")
	return m.updateErr
}

func (m *mockProcessor) AcceptTermsOfService(_ context.Context, _, _ string, _ time.Time) error {
	m.record("AcceptTermsOfService")
	return m.tosErr
}

func (m *mockProcessor) GetPayableBalance(_ context.Context, _ string) (*domain.PayableBalance, error) {
	m.record("GetPayableBalance")
	return m.payable, m.payableErr
}

func (m *mockProcessor) GetIssuingBalance(_ context.Context, _ string) (*domain.Money, error) {
	m.record("GetIssuingBalance")
	return m.issuing, m.issuingErr
}

func (m *mockProcessor) TopUpIssuing(_ context.Context, _ string, amountCents int64, key string) error {
	m.record("TopUpIssuing")
	m.mu.Lock()
	m.lastTopUpKey = key
	m.mu.Unlock()
	if m.topUpErr != nil {
		return m.topUpErr
	}
	// Simulate the atomic ledger move so the re-read sees the effect.
	if m.payable != nil {
		for i := range m.payable.Available {
			if m.payable.Available[i].Currency == "usd" {
				m.payable.Available[i].Amount -= amountCents
			}
		}
	}
	if m.issuing != nil {
		m.issuing.Amount += amountCents
	}
	return nil
}

func (m *mockProcessor) ListTransactions(_ context.Context, _ string, _ int, _ string) (*domain.TransactionPage, error) {
	m.record("ListTransactions")
	return m.txPage, m.txErr
}

func (m *mockProcessor) CreateCardholder(_ context.Context, _ string, ch domain.Cardholder, _ string) (string, error) {
	m.record("CreateCardholder")
	m.mu.Lock()
	m.lastCardholder = ch
	m.mu.Unlock()
	return m.cardholderID, m.cardholderErr
}

func (m *mockProcessor) GetCardholder(_ context.Context, _ string) (*domain.Cardholder, error) {
	m.record("GetCardholder")
	return m.cardholder, m.getCardholder
}

func (m *mockProcessor) CreateVirtualCard(_ context.Context, _, _ string, req domain.VirtualCardRequest, _ string) (*domain.VirtualCard, error) {
	m.record("CreateVirtualCard")
	m.mu.Lock()
	m.lastCardReq = req
	m.mu.Unlock()
	return m.card, m.cardErr
}

func (m *mockProcessor) GetVirtualCard(_ context.Context, _ string) (*domain.VirtualCard, error) {
	m.record("GetVirtualCard")
	if m.existingCardErr != nil {
		return nil, m.existingCardErr
	}
	if m.existingCard == nil {
		return nil, domain.ErrNotFound("virtual card")
	}
	return m.existingCard, nil
}

func (m *mockProcessor) CreatePayout(_ context.Context, _ string, amountCents int64, currency, key string) (*domain.Payout, error) {
	m.record("CreatePayout")
	m.mu.Lock()
	m.lastPayout = amountCents
	m.lastPayoutKey = key
	m.mu.Unlock()
	if m.payoutErr != nil {
		return nil, m.payoutErr
	}
	if m.payout != nil {
		return m.payout, nil
	}
	return &domain.Payout{ID: "po_1", Amount: amountCents, Currency: currency, Status: domain.PayoutPending}, nil
}

func (m *mockProcessor) ListPayouts(_ context.Context, _ string, _ int, _ string) (*domain.PayoutPage, error) {
	m.record("ListPayouts")
	return m.payoutPage, m.payoutsErr
}

func (m *mockProcessor) AddBankAccount(_ context.Context, _ string, _ domain.AddBankAccountRequest) (string, error) {
	m.record("AddBankAccount")
	return m.bankAccountID, m.bankAccountErr
}

// mockRepo implements port.AccountRepository in memory.
type mockRepo struct {
	mu      sync.Mutex
	records map[string]*port.AccountRecord

	getErr    error
	createErr error
	setErr    error
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[string]*port.AccountRecord)}
}

func (m *mockRepo) GetAccountRecord(_ context.Context, ownerID string) (*port.AccountRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) CreateAccountRecord(_ context.Context, rec *port.AccountRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.OwnerID] = rec
	return nil
}

func (m *mockRepo) SetCardholderID(_ context.Context, ownerID, cardholderID string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[ownerID]; ok {
		rec.CardholderID = cardholderID
	}
	return nil
}

func (m *mockRepo) SetTermsAccepted(_ context.Context, ownerID string, acceptedAt time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[ownerID]; ok {
		rec.TermsAcceptedAt = &acceptedAt
	}
	return nil
}

func (m *mockRepo) InsertLease(_ context.Context, _, _ string, _ time.Time) (bool, error) {
	return true, nil
}

func (m *mockRepo) DeleteLease(_ context.Context, _, _ string) error {
	return nil
}

// mockLocker hands out the lease immediately and counts acquisitions.
type mockLocker struct {
	mu       sync.Mutex
	acquires int
	releases int
	err      error
}

func (m *mockLocker) Acquire(_ context.Context, _ string) (func(), error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	m.acquires++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.releases++
		m.mu.Unlock()
	}, nil
}

// --- Fixtures ---

const testOwner = "owner-1"

func approvedSnapshot() *domain.ConnectedAccount {
	return &domain.ConnectedAccount{
		ProcessorAccountID: "acct_1",
		ChargesEnabled:     true,
		PayoutsEnabled:     true,
		DetailsSubmitted:   true,
		Capabilities: map[domain.CapabilityName]domain.CapabilityState{
			domain.CapabilityCardPayments: domain.CapabilityActive,
			domain.CapabilityTransfers:    domain.CapabilityActive,
			domain.CapabilityCardIssuing:  domain.CapabilityActive,
		},
		ExternalAccounts: []domain.BankAccount{
			{ID: "ba_1", Last4: "6789", Currency: "usd", DefaultForCurrency: true},
		},
	}
}

// newService wires a ConnectService over the mocks with a mapped account.
func newService(t interface{ Helper() }, proc *mockProcessor, repo *mockRepo, testMode bool) (*service.ConnectService, *mockLocker) {
	t.Helper()
	locker := &mockLocker{}
	svc := service.NewConnectService(
		proc,
		repo,
		locker,
		cache.New[string](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
		testMode,
	)
	return svc, locker
}

func mappedRepo(cardholderID string) *mockRepo {
	repo := newMockRepo()
	rec := &port.AccountRecord{
		OwnerID:            testOwner,
		ProcessorAccountID: "acct_1",
		CardholderID:       cardholderID,
		CreatedAt:          time.Now(),
	}
	repo.records[testOwner] = rec
	return repo
}
