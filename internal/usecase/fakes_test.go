package usecase

import (
	"context"
	"sort"
	"time"

	"greenwallet-service/internal/domain"
	publisher "greenwallet-service/internal/pub"
	"greenwallet-service/pkg/utils"
	"greenwallet-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeStore backs the fake repositories with plain maps. Repositories
// hand out copies so callers see snapshots, matching the real store.
type fakeStore struct {
	wallets map[int64]*domain.Wallet
	batches map[int64]*domain.CreditBatch
	txns    []*domain.Transaction

	nextWalletID int64
	nextBatchID  int64
	nextTxnID    int64
	clock        time.Time

	commits   int
	rollbacks int

	balanceErr error // injected ApplyBalanceChange failure
	txnErr     error // injected transaction append failure
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets: make(map[int64]*domain.Wallet),
		batches: make(map[int64]*domain.CreditBatch),
		clock:   time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// stubTx satisfies pgx.Tx for code paths that only ever commit or roll
// back; any other method panics through the embedded nil interface.
type stubTx struct {
	pgx.Tx
	store *fakeStore
}

func (t *stubTx) Commit(ctx context.Context) error   { t.store.commits++; return nil }
func (t *stubTx) Rollback(ctx context.Context) error { t.store.rollbacks++; return nil }

// ---- wallet repository ----

type fakeWalletRepo struct{ s *fakeStore }

func (r *fakeWalletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return &stubTx{store: r.s}, nil
}

func (r *fakeWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	for _, existing := range r.s.wallets {
		if existing.WalletNumber == w.WalletNumber {
			return xerrors.ErrDuplicateWalletNumber
		}
	}
	r.s.nextWalletID++
	w.ID = r.s.nextWalletID
	w.CreatedAt = r.s.tick()
	cp := *w
	r.s.wallets[w.ID] = &cp
	return nil
}

func (r *fakeWalletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, xerrors.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) GetByIDTx(ctx context.Context, id int64, tx pgx.Tx) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeWalletRepo) GetByNumber(ctx context.Context, walletNumber int) (*domain.Wallet, error) {
	for _, w := range r.s.wallets {
		if w.WalletNumber == walletNumber {
			cp := *w
			return &cp, nil
		}
	}
	return nil, xerrors.ErrWalletNotFound
}

func (r *fakeWalletRepo) GetAll(ctx context.Context) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet
	for _, w := range r.s.wallets {
		cp := *w
		wallets = append(wallets, &cp)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].CreatedAt.After(wallets[j].CreatedAt)
	})
	return wallets, nil
}

func (r *fakeWalletRepo) NumberExists(ctx context.Context, walletNumber int) (bool, error) {
	for _, w := range r.s.wallets {
		if w.WalletNumber == walletNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWalletRepo) Update(ctx context.Context, id int64, u *domain.WalletUpdate) error {
	w, ok := r.s.wallets[id]
	if !ok {
		return xerrors.ErrWalletNotFound
	}
	w.Name = u.Name
	w.OwnerType = u.OwnerType
	return nil
}

func (r *fakeWalletRepo) ApplyBalanceChange(ctx context.Context, tx pgx.Tx, walletID int64, availableDelta, retiredDelta decimal.Decimal) error {
	if r.s.balanceErr != nil {
		return r.s.balanceErr
	}
	w, ok := r.s.wallets[walletID]
	if !ok {
		return xerrors.ErrWalletNotFound
	}
	w.AvailableCredits = w.AvailableCredits.Add(availableDelta)
	w.RetiredCredits = w.RetiredCredits.Add(retiredDelta)
	return nil
}

func (r *fakeWalletRepo) Delete(ctx context.Context, walletID int64, tx pgx.Tx) error {
	if _, ok := r.s.wallets[walletID]; !ok {
		return xerrors.ErrWalletNotFound
	}
	delete(r.s.wallets, walletID)
	return nil
}

// ---- batch repository ----

type fakeBatchRepo struct{ s *fakeStore }

func (r *fakeBatchRepo) Create(ctx context.Context, b *domain.CreditBatch, tx pgx.Tx) error {
	r.s.nextBatchID++
	b.ID = r.s.nextBatchID
	b.IssuedAt = r.s.tick()
	cp := *b
	r.s.batches[b.ID] = &cp
	return nil
}

func (r *fakeBatchRepo) GetByID(ctx context.Context, id int64) (*domain.CreditBatch, error) {
	b, ok := r.s.batches[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBatchRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.CreditBatch, error) {
	batches := r.walletBatches(walletID, false)
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].IssuedAt.After(batches[j].IssuedAt)
	})
	return batches, nil
}

func (r *fakeBatchRepo) ListOpenTx(ctx context.Context, walletID int64, tx pgx.Tx) ([]*domain.CreditBatch, error) {
	batches := r.walletBatches(walletID, true)
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].IssuedAt.Equal(batches[j].IssuedAt) {
			return batches[i].ID < batches[j].ID
		}
		return batches[i].IssuedAt.Before(batches[j].IssuedAt)
	})
	return batches, nil
}

func (r *fakeBatchRepo) walletBatches(walletID int64, openOnly bool) []*domain.CreditBatch {
	var batches []*domain.CreditBatch
	for _, b := range r.s.batches {
		if b.WalletID != walletID {
			continue
		}
		if openOnly && b.RemainingAmount.Sign() <= 0 {
			continue
		}
		cp := *b
		batches = append(batches, &cp)
	}
	return batches
}

func (r *fakeBatchRepo) ApplyDrawdown(ctx context.Context, tx pgx.Tx, batchID int64, consumed decimal.Decimal, status domain.BatchStatus) error {
	b, ok := r.s.batches[batchID]
	if !ok {
		return xerrors.ErrNotFound
	}
	b.RemainingAmount = b.RemainingAmount.Sub(consumed)
	b.Status = status
	return nil
}

func (r *fakeBatchRepo) DeleteByWallet(ctx context.Context, walletID int64, tx pgx.Tx) error {
	for id, b := range r.s.batches {
		if b.WalletID == walletID {
			delete(r.s.batches, id)
		}
	}
	return nil
}

// ---- transaction repository ----

type fakeTxnRepo struct{ s *fakeStore }

func (r *fakeTxnRepo) Create(ctx context.Context, t *domain.TransactionCreate, tx pgx.Tx) (*domain.Transaction, error) {
	if r.s.txnErr != nil {
		return nil, r.s.txnErr
	}
	r.s.nextTxnID++
	rec := &domain.Transaction{
		ID:            r.s.nextTxnID,
		WalletID:      t.WalletID,
		BatchID:       t.BatchID,
		Type:          t.Type,
		Amount:        t.Amount,
		Reference:     t.Reference,
		ReferenceNote: t.ReferenceNote,
		CreatedAt:     r.s.tick(),
	}
	r.s.txns = append(r.s.txns, rec)
	cp := *rec
	return &cp, nil
}

func (r *fakeTxnRepo) GetByReference(ctx context.Context, reference string) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for _, t := range r.s.txns {
		if t.Reference == reference {
			cp := *t
			txns = append(txns, &cp)
		}
	}
	if len(txns) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return txns, nil
}

func (r *fakeTxnRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for _, t := range r.s.txns {
		if t.WalletID == walletID {
			cp := *t
			txns = append(txns, &cp)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID > txns[j].ID })
	return txns, nil
}

func (r *fakeTxnRepo) DeleteByWallet(ctx context.Context, walletID int64, tx pgx.Tx) error {
	kept := r.s.txns[:0]
	for _, t := range r.s.txns {
		if t.WalletID != walletID {
			kept = append(kept, t)
		}
	}
	r.s.txns = kept
	return nil
}

// ---- wiring helpers ----

func newTestUsecases() (*WalletUsecase, *LedgerUsecase, *fakeStore) {
	s := newFakeStore()
	walletRepo := &fakeWalletRepo{s: s}
	batchRepo := &fakeBatchRepo{s: s}
	txnRepo := &fakeTxnRepo{s: s}

	logger := zap.NewNop()
	events := publisher.NewWalletEventPublisher(nil, logger)

	walletUC := NewWalletUsecase(walletRepo, batchRepo, txnRepo, utils.NewWalletNumberGenerator(), nil, events, logger)
	ledgerUC := NewLedgerUsecase(walletRepo, batchRepo, txnRepo, utils.NewReferenceGenerator(), nil, nil, events, logger)
	return walletUC, ledgerUC, s
}

func seedWallet(s *fakeStore, available string) *domain.Wallet {
	s.nextWalletID++
	w := &domain.Wallet{
		ID:               s.nextWalletID,
		WalletNumber:     100000 + int(s.nextWalletID),
		Name:             "Test Wallet",
		OwnerType:        domain.OwnerTypeEnterprise,
		OwnerID:          1,
		AvailableCredits: decimal.RequireFromString(available),
		RetiredCredits:   decimal.Zero,
		CreatedAt:        s.tick(),
	}
	s.wallets[w.ID] = w
	return w
}
