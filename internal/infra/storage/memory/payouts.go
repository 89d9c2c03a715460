package memory

import (
	"context"
	"errors"
	"sync"

	domainpayout "fleetride/internal/domain/payout"
)

// ErrPayoutNotFound is returned when a payout does not exist.
var ErrPayoutNotFound = errors.New("memory: payout not found")

// PayoutRepository is an in-memory implementation for tests and local runs.
type PayoutRepository struct {
	mu    sync.RWMutex
	items map[domainpayout.PayoutID]*domainpayout.Payout
}

func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{items: make(map[domainpayout.PayoutID]*domainpayout.Payout)}
}

func (r *PayoutRepository) ByID(ctx context.Context, id domainpayout.PayoutID) (*domainpayout.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrPayoutNotFound
	}
	return p, nil
}

// BySubject lists payouts sharing a booking or extension, the input to the
// duplicate-disbursement policy check.
func (r *PayoutRepository) BySubject(ctx context.Context, bookingID, extensionID string) ([]*domainpayout.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainpayout.Payout
	for _, p := range r.items {
		if bookingID != "" && p.BookingID == bookingID {
			out = append(out, p)
			continue
		}
		if extensionID != "" && p.ExtensionID == extensionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PayoutRepository) Save(ctx context.Context, p *domainpayout.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[p.ID]; ok && existing != p && existing.Version != p.Version {
		return ErrConcurrentUpdate
	}
	p.Version++
	r.items[p.ID] = p
	return nil
}

var _ domainpayout.Repository = (*PayoutRepository)(nil)
