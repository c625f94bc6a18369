package booking

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepository is an in-memory Repository. WithResourceLock serializes
// callers per resource the way the advisory lock does.
type memRepository struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	locks    sync.Map // resourceID -> *sync.Mutex
	users    map[string]string
	names    map[string]string
}

func newMemRepository() *memRepository {
	return &memRepository{
		bookings: map[string]*Booking{},
		users:    map[string]string{},
		names:    map[string]string{},
	}
}

func (r *memRepository) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	cp.UserName = r.users[cp.UserID]
	cp.ResourceName = r.names[cp.ResourceID]
	return &cp, nil
}

func (r *memRepository) List(_ context.Context, f Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.ResourceID != "" && b.ResourceID != f.ResourceID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.From != nil && b.EndTime.Before(*f.From) {
			continue
		}
		if f.To != nil && b.StartTime.After(*f.To) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })

	total := len(out)
	page, limit := max(f.Page, 1), f.Limit
	if limit < 1 {
		limit = 10
	}
	lo := min((page-1)*limit, total)
	hi := min(lo+limit, total)
	return out[lo:hi], total, nil
}

func (r *memRepository) ListCalendar(_ context.Context, f CalendarFilter) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Booking
	for _, b := range r.bookings {
		if b.Status != f.Status || b.EndTime.Before(f.From) || b.StartTime.After(f.To) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *memRepository) Update(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memRepository) HasConflict(_ context.Context, q ConflictQuery) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.ResourceID != q.ResourceID || b.ID == q.ExcludeID || !slices.Contains(q.Statuses, b.Status) {
			continue
		}
		if Overlaps(q.Start, q.End, b.StartTime, b.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepository) WithResourceLock(_ context.Context, resourceID string, fn func(Repository) error) error {
	m, _ := r.locks.LoadOrStore(resourceID, &sync.Mutex{})
	lock := m.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()
	return fn(r)
}

// seed stores a booking directly, bypassing the engine's rules.
func (r *memRepository) seed(b Booking) *Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.bookings[b.ID] = &b
	cp := b
	return &cp
}

func (r *memRepository) status(id string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}
