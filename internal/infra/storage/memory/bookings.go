package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	domainbooking "fleetride/internal/domain/booking"
)

var (
	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("memory: booking not found")
	// ErrConcurrentUpdate signals a lost optimistic-version race.
	ErrConcurrentUpdate = errors.New("memory: concurrent update detected")
)

// BookingRepository is an in-memory implementation for tests and local runs.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty repository.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID returns a booking or ErrBookingNotFound.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// ListDue returns non-terminal bookings whose period has started, the
// candidates the automation sweep inspects.
func (r *BookingRepository) ListDue(ctx context.Context, now time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var due []*domainbooking.Booking
	for _, b := range r.items {
		if b.Status.IsTerminal() {
			continue
		}
		if !now.Before(b.Period.Start()) {
			due = append(due, b)
		}
	}
	return due, nil
}

// Save stores the booking, enforcing the optimistic version and assigning
// leg identities the way the persistence boundary owns them.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[b.ID]; ok && existing != b && existing.Version != b.Version {
		return ErrConcurrentUpdate
	}
	for _, leg := range b.Legs {
		if leg.ID == "" {
			leg.ID = uuid.NewString()
		}
	}
	b.Version++
	r.items[b.ID] = b
	return nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
