package repository

import (
	"context"
	"sync"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/models"
)

// MemoryTransactionRepository keeps transactions in process memory.
// A single mutex serializes every read-modify-write.
type MemoryTransactionRepository struct {
	byID         map[string]*models.Transaction
	byThirdParty map[string]string
	mu           sync.Mutex
}

// NewMemoryTransactionRepository creates an empty in-memory TransactionRepository
func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		byID:         make(map[string]*models.Transaction),
		byThirdParty: make(map[string]string),
	}
}

// PingContext always succeeds; the store lives in process
func (r *MemoryTransactionRepository) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// Create stores a copy of txn unless its id is already taken
func (r *MemoryTransactionRepository) Create(_ context.Context, txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[txn.ID]; exists {
		return models.ErrDuplicateTransaction
	}
	if txn.ThirdPartyID != "" {
		if _, taken := r.byThirdParty[txn.ThirdPartyID]; taken {
			return models.ErrThirdPartyIDConflict
		}
	}

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	txn.UpdatedAt = txn.CreatedAt
	if txn.WebhookLog == nil {
		txn.WebhookLog = []models.WebhookEntry{}
	}

	r.byID[txn.ID] = cloneTransaction(txn)
	if txn.ThirdPartyID != "" {
		r.byThirdParty[txn.ThirdPartyID] = txn.ID
	}

	return nil
}

// FindByID returns a copy of the stored transaction
func (r *MemoryTransactionRepository) FindByID(_ context.Context, id string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneTransaction(txn), nil
}

// BindThirdPartyID records the processor id once
func (r *MemoryTransactionRepository) BindThirdPartyID(_ context.Context, id, thirdPartyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	if txn.ThirdPartyID == thirdPartyID {
		return nil
	}
	if txn.ThirdPartyID != "" {
		return models.ErrThirdPartyIDConflict
	}
	if _, taken := r.byThirdParty[thirdPartyID]; taken {
		return models.ErrThirdPartyIDConflict
	}

	txn.ThirdPartyID = thirdPartyID
	txn.UpdatedAt = time.Now().UTC()
	r.byThirdParty[thirdPartyID] = id

	return nil
}

// ApplyNotification records a notification against the matching transaction
func (r *MemoryTransactionRepository) ApplyNotification(_ context.Context, key CorrelationKey, update StatusUpdate) (*UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := key.Value
	if key.Kind == ByThirdPartyID {
		var ok bool
		if id, ok = r.byThirdParty[key.Value]; !ok {
			return nil, models.ErrNotFound
		}
	}

	txn, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	result := ApplyUpdate(txn, update)
	result.Transaction = cloneTransaction(txn)

	return result, nil
}

func cloneTransaction(txn *models.Transaction) *models.Transaction {
	clone := *txn
	clone.WebhookLog = make([]models.WebhookEntry, len(txn.WebhookLog))
	copy(clone.WebhookLog, txn.WebhookLog)
	return &clone
}

// MemoryIdempotencyRepository keeps cached responses in process memory
type MemoryIdempotencyRepository struct {
	entries map[string]models.IdempotencyKey
	mu      sync.RWMutex
}

// NewMemoryIdempotencyRepository creates an empty in-memory IdempotencyRepository
func NewMemoryIdempotencyRepository() *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{entries: make(map[string]models.IdempotencyKey)}
}

// Get returns the cached response, or nil when none is stored
func (r *MemoryIdempotencyRepository) Get(_ context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[requestPath+"\x00"+key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Store saves a response; the first one stored wins
func (r *MemoryIdempotencyRepository) Store(_ context.Context, idemKey *models.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idemKey.RequestPath + "\x00" + idemKey.Key
	if _, exists := r.entries[k]; exists {
		return nil
	}
	if idemKey.CreatedAt.IsZero() {
		idemKey.CreatedAt = time.Now().UTC()
	}
	r.entries[k] = *idemKey

	return nil
}

// DeleteOlderThan removes cached responses created before cutoff
func (r *MemoryIdempotencyRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for k, entry := range r.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(r.entries, k)
			deleted++
		}
	}

	return deleted, nil
}

var (
	_ TransactionRepository = (*MemoryTransactionRepository)(nil)
	_ IdempotencyRepository = (*MemoryIdempotencyRepository)(nil)
)
