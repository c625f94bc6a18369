package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/events"
)

// notifyTimeout bounds one delivery once it has left the caller's request.
const notifyTimeout = 5 * time.Second

type Service interface {
	// Notify queues an inbox entry and its event and returns at once.
	// Failures are logged and never returned, so callers can notify after
	// committing their own work.
	Notify(ctx context.Context, userID, title, content, relatedType, relatedID string)
	List(ctx context.Context, filter Filter) ([]*Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) (*Notification, error)
	// Close stops accepting notifications and waits for queued deliveries
	// until ctx is done.
	Close(ctx context.Context) error
}

type service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewService(repo Repository, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

type createdPayload struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	RelatedType string    `json:"related_type,omitempty"`
	RelatedID   string    `json:"related_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *service) Notify(ctx context.Context, userID, title, content, relatedType, relatedID string) {
	n := &Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Content:     content,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.WarnContext(ctx, "notification dropped after shutdown",
			"user_id", userID, "related_type", relatedType, "related_id", relatedID)
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		s.deliver(context.WithoutCancel(ctx), n)
	}()
}

func (s *service) deliver(ctx context.Context, n *Notification) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, n); err != nil {
		slog.ErrorContext(ctx, "store notification failed",
			"user_id", n.UserID, "related_type", n.RelatedType, "related_id", n.RelatedID, "error", err)
		return
	}

	evt := events.Event{
		Type:       EventCreated,
		OccurredAt: n.CreatedAt,
		Payload: createdPayload{
			ID:          n.ID,
			UserID:      n.UserID,
			Title:       n.Title,
			Content:     n.Content,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt,
		},
	}
	if err := s.publisher.Publish(ctx, n.UserID, evt); err != nil {
		slog.ErrorContext(ctx, "publish notification event failed",
			"notification_id", n.ID, "user_id", n.UserID, "error", err)
	}
}

func (s *service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for notification deliveries: %w", ctx.Err())
	}
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Notification, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.MarkRead(ctx, userID, id)
}
