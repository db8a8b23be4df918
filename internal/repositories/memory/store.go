// Package memory implements repositories.LedgerRepository without a database.
// It is used by tests and by the server when LEDGER_STORE=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"paytrack/internal/models"
	"paytrack/internal/repositories"

	"github.com/shopspring/decimal"
)

// Store keeps committed state behind a RWMutex. Units of work stage their writes
// and apply them in one critical section, so a failed unit leaves no trace.
type Store struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	payments []models.Payment
	balances map[models.PairKey]models.Balance

	nextPaymentID atomic.Int64

	locksMu   sync.Mutex
	pairLocks map[models.PairKey]chan struct{}

	now func() time.Time
}

var _ repositories.LedgerRepository = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]models.User),
		balances:  make(map[models.PairKey]models.Balance),
		pairLocks: make(map[models.PairKey]chan struct{}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	var out *models.User
	err := s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		u, err := tx.EnsureUser(ctx, user)
		out = u
		return err
	})
	return out, err
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		return tx.CreatePayment(ctx, payment)
	})
}

func (s *Store) GetPaymentsBetween(_ context.Context, userA, userB int64, limit int) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selectBetween(s.payments, nil, userA, userB, limit), nil
}

// LockPair outside a unit of work has nothing to protect.
func (s *Store) LockPair(context.Context, int64, int64) error {
	return nil
}

func (s *Store) AdjustBalance(ctx context.Context, ownerID, counterpartyID int64, delta decimal.Decimal) error {
	return s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		return tx.AdjustBalance(ctx, ownerID, counterpartyID, delta)
	})
}

func (s *Store) GetBalance(_ context.Context, ownerID, counterpartyID int64) (*models.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[models.PairKey{OwnerID: ownerID, CounterpartyID: counterpartyID}]
	if !ok {
		return nil, repositories.ErrBalanceNotFound
	}
	return &b, nil
}

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &unit{
		store:  s,
		users:  make(map[int64]models.User),
		deltas: make(map[models.PairKey]decimal.Decimal),
		held:   make(map[models.PairKey]chan struct{}),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Len reports the number of committed payments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

func (s *Store) pairLock(key models.PairKey) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.pairLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.pairLocks[key] = ch
	}
	return ch
}

// unit is one staged unit of work against a Store.
type unit struct {
	store    *Store
	users    map[int64]models.User
	payments []models.Payment
	deltas   map[models.PairKey]decimal.Decimal
	order    []models.PairKey
	held     map[models.PairKey]chan struct{}
}

func (u *unit) EnsureUser(_ context.Context, user *models.User) (*models.User, error) {
	if existing, ok := u.lookupUser(user.ID); ok {
		return &existing, nil
	}
	staged := *user
	if staged.CreatedAt.IsZero() {
		staged.CreatedAt = u.store.now()
	}
	u.users[staged.ID] = staged
	return &staged, nil
}

func (u *unit) GetUser(_ context.Context, id int64) (*models.User, error) {
	if existing, ok := u.lookupUser(id); ok {
		return &existing, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (u *unit) CreatePayment(_ context.Context, payment *models.Payment) error {
	if _, ok := u.lookupUser(payment.PayerID); !ok {
		return repositories.ErrUserNotFound
	}
	if _, ok := u.lookupUser(payment.RecipientID); !ok {
		return repositories.ErrUserNotFound
	}
	payment.ID = u.store.nextPaymentID.Add(1)
	if payment.Timestamp.IsZero() {
		payment.Timestamp = u.store.now()
	}
	stored := *payment
	stored.Payer, stored.Recipient = nil, nil
	u.payments = append(u.payments, stored)
	return nil
}

func (u *unit) GetPaymentsBetween(_ context.Context, userA, userB int64, limit int) ([]models.Payment, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	return selectBetween(u.store.payments, u.payments, userA, userB, limit), nil
}

// LockPair blocks until the unordered pair is free or ctx is done. The lock is held until the unit ends.
func (u *unit) LockPair(ctx context.Context, userA, userB int64) error {
	key := unorderedKey(userA, userB)
	if _, ok := u.held[key]; ok {
		return nil
	}
	ch := u.store.pairLock(key)
	select {
	case ch <- struct{}{}:
		u.held[key] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *unit) AdjustBalance(_ context.Context, ownerID, counterpartyID int64, delta decimal.Decimal) error {
	if _, ok := u.lookupUser(ownerID); !ok {
		return repositories.ErrUserNotFound
	}
	if _, ok := u.lookupUser(counterpartyID); !ok {
		return repositories.ErrUserNotFound
	}
	key := models.PairKey{OwnerID: ownerID, CounterpartyID: counterpartyID}
	current, ok := u.deltas[key]
	if !ok {
		u.order = append(u.order, key)
		current = decimal.Zero
	}
	u.deltas[key] = current.Add(delta)
	return nil
}

func (u *unit) GetBalance(_ context.Context, ownerID, counterpartyID int64) (*models.Balance, error) {
	key := models.PairKey{OwnerID: ownerID, CounterpartyID: counterpartyID}
	u.store.mu.RLock()
	committed, found := u.store.balances[key]
	u.store.mu.RUnlock()

	if delta, ok := u.deltas[key]; ok {
		if !found {
			committed = models.Balance{OwnerID: ownerID, CounterpartyID: counterpartyID, Amount: decimal.Zero}
			found = true
		}
		committed.Amount = committed.Amount.Add(delta)
	}
	if !found {
		return nil, repositories.ErrBalanceNotFound
	}
	return &committed, nil
}

// ExecuteInTransaction joins the enclosing unit.
func (u *unit) ExecuteInTransaction(_ context.Context, fn func(repositories.LedgerRepository) error) error {
	return fn(u)
}

func (u *unit) Ping(context.Context) error {
	return nil
}

func (u *unit) lookupUser(id int64) (models.User, bool) {
	if staged, ok := u.users[id]; ok {
		return staged, true
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	existing, ok := u.store.users[id]
	return existing, ok
}

func (u *unit) commit() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, user := range u.users {
		if _, ok := s.users[id]; !ok {
			s.users[id] = user
		}
	}
	s.payments = append(s.payments, u.payments...)

	now := s.now()
	for _, key := range u.order {
		b, ok := s.balances[key]
		if !ok {
			b = models.Balance{OwnerID: key.OwnerID, CounterpartyID: key.CounterpartyID, Amount: decimal.Zero}
		}
		b.Amount = b.Amount.Add(u.deltas[key])
		b.UpdatedAt = now
		s.balances[key] = b
	}
	return nil
}

func (u *unit) release() {
	for key, ch := range u.held {
		<-ch
		delete(u.held, key)
	}
}

func unorderedKey(a, b int64) models.PairKey {
	if a > b {
		a, b = b, a
	}
	return models.PairKey{OwnerID: a, CounterpartyID: b}
}

// selectBetween returns payments between the pair, newest first with ties broken by id.
func selectBetween(committed, staged []models.Payment, userA, userB int64, limit int) []models.Payment {
	var out []models.Payment
	for _, set := range [][]models.Payment{committed, staged} {
		for _, p := range set {
			if (p.PayerID == userA && p.RecipientID == userB) || (p.PayerID == userB && p.RecipientID == userA) {
				out = append(out, p)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.Payment{}
	}
	return out
}
