package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// ResourceFinder resolves a bookable (existing, not deleted) resource.
type ResourceFinder interface {
	FindBookable(ctx context.Context, id string) (*resource.Resource, error)
}

// Notifier delivers an inbox message to a user. Implementations are
// best-effort and must not block the caller on delivery failures.
type Notifier interface {
	Notify(ctx context.Context, userID, title, content, relatedType, relatedID string)
}

const relatedType = "booking"

type CreateInput struct {
	ResourceID string
	StartTime  string
	EndTime    string
	Purpose    string
}

// UpdateInput is a partial update; nil fields are left unchanged.
// Owner and resource are not part of it and cannot be changed.
type UpdateInput struct {
	StartTime *string
	EndTime   *string
	Purpose   *string
}

type StatusInput struct {
	Status       Status
	RejectReason string
}

type ListInput struct {
	UserID     string
	ResourceID string
	Status     Status
	StartDate  string
	EndDate    string
	Page       int
	Limit      int
}

type CalendarInput struct {
	StartDate string
	EndDate   string
	Status    Status
}

type Service interface {
	Create(ctx context.Context, actor Actor, in CreateInput) (*Booking, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Booking, error)
	UpdateStatus(ctx context.Context, id string, in StatusInput) (*Booking, error)
	Cancel(ctx context.Context, actor Actor, id string) (*Booking, error)
	List(ctx context.Context, actor Actor, in ListInput) ([]*Booking, int, error)
	Get(ctx context.Context, actor Actor, id string) (*Booking, error)
	Calendar(ctx context.Context, in CalendarInput) ([]*Booking, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo      Repository
	resources ResourceFinder
	notifier  Notifier
	clock     Clock
}

func NewService(repo Repository, resources ResourceFinder, notifier Notifier, clock Clock) Service {
	return &service{
		repo:      repo,
		resources: resources,
		notifier:  notifier,
		clock:     clock,
	}
}

func (s *service) Create(ctx context.Context, actor Actor, in CreateInput) (*Booking, error) {
	if strings.TrimSpace(in.ResourceID) == "" || strings.TrimSpace(in.StartTime) == "" || strings.TrimSpace(in.EndTime) == "" {
		return nil, ErrInvalidPayload
	}

	if _, err := s.resources.FindBookable(ctx, in.ResourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	start, end, err := s.clock.ParseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		UserID:     actor.UserID,
		ResourceID: in.ResourceID,
		StartTime:  start,
		EndTime:    end,
		Purpose:    strings.TrimSpace(in.Purpose),
		Status:     StatusPending,
	}

	var created *Booking
	err = s.repo.WithResourceLock(ctx, b.ResourceID, func(repo Repository) error {
		if err := ensureFree(ctx, repo, ConflictQuery{
			ResourceID: b.ResourceID,
			Start:      b.StartTime,
			End:        b.EndTime,
			Statuses:   occupyingStatuses,
		}); err != nil {
			return err
		}
		if err := repo.Create(ctx, b); err != nil {
			return err
		}
		// Reload to pick up the joined owner and resource names.
		created, err = repo.GetByID(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if (in.StartTime == nil) != (in.EndTime == nil) {
		return nil, ErrPartialTimeUpdate
	}

	var start, end time.Time
	if in.StartTime != nil {
		if start, end, err = s.clock.ParseWindow(*in.StartTime, *in.EndTime); err != nil {
			return nil, err
		}
	}

	var b *Booking
	err = s.repo.WithResourceLock(ctx, current.ResourceID, func(repo Repository) error {
		// Re-read under the lock so a concurrent status change is not undone.
		var err error
		b, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.StartTime != nil {
			if err := ensureFree(ctx, repo, ConflictQuery{
				ResourceID: b.ResourceID,
				Start:      start,
				End:        end,
				Statuses:   occupyingStatuses,
				ExcludeID:  b.ID,
			}); err != nil {
				return err
			}
			b.StartTime, b.EndTime = start, end
		}
		if in.Purpose != nil {
			b.Purpose = strings.TrimSpace(*in.Purpose)
		}
		return repo.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, in StatusInput) (*Booking, error) {
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		b       *Booking
		changed bool
	)
	err = s.repo.WithResourceLock(ctx, current.ResourceID, func(repo Repository) error {
		// Re-read under the lock so the transition sees the latest status.
		var err error
		b, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == in.Status {
			return nil
		}

		switch {
		case in.Status == StatusApproved:
			if b.Status.Terminal() {
				return ErrInvalidStatusTransition
			}
			if err := ensureFree(ctx, repo, ConflictQuery{
				ResourceID: b.ResourceID,
				Start:      b.StartTime,
				End:        b.EndTime,
				Statuses:   approvalBlockingStatuses,
				ExcludeID:  b.ID,
			}); err != nil {
				return err
			}
		case in.Status == StatusPending && b.Status.Terminal():
			// Reviving a booking makes it occupy its slot again.
			if err := ensureFree(ctx, repo, ConflictQuery{
				ResourceID: b.ResourceID,
				Start:      b.StartTime,
				End:        b.EndTime,
				Statuses:   occupyingStatuses,
				ExcludeID:  b.ID,
			}); err != nil {
				return err
			}
		}

		b.Status = in.Status
		b.RejectReason = ""
		if in.Status == StatusRejected {
			b.RejectReason = strings.TrimSpace(in.RejectReason)
		}
		changed = true
		return repo.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.Notify(ctx, b.UserID, "Booking status changed", statusMessage(b), relatedType, b.ID)
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, id string) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var (
		b       *Booking
		changed bool
	)
	err = s.repo.WithResourceLock(ctx, current.ResourceID, func(repo Repository) error {
		var err error
		b, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return nil
		}

		b.Status = StatusCancelled
		b.RejectReason = ""
		changed = true
		return repo.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.Notify(ctx, b.UserID, "Booking cancelled",
			fmt.Sprintf("Your booking of %s on %s has been cancelled.", b.ResourceName, s.formatWindow(b)),
			relatedType, b.ID)
	}
	return b, nil
}

func (s *service) List(ctx context.Context, actor Actor, in ListInput) ([]*Booking, int, error) {
	filter := Filter{
		UserID:     in.UserID,
		ResourceID: in.ResourceID,
		Status:     in.Status,
		Page:       in.Page,
		Limit:      in.Limit,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	// Students only ever see their own bookings.
	if actor.IsStudent() {
		filter.UserID = actor.UserID
	}

	if strings.TrimSpace(in.StartDate) != "" {
		from, err := s.clock.ParseBound(in.StartDate, false)
		if err != nil {
			return nil, 0, err
		}
		filter.From = &from
	}
	if strings.TrimSpace(in.EndDate) != "" {
		to, err := s.clock.ParseBound(in.EndDate, true)
		if err != nil {
			return nil, 0, err
		}
		filter.To = &to
	}

	return s.repo.List(ctx, filter)
}

func (s *service) Get(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsStudent() && b.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *service) Calendar(ctx context.Context, in CalendarInput) ([]*Booking, error) {
	if strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" {
		return nil, ErrCalendarRange
	}
	from, err := s.clock.ParseBound(in.StartDate, false)
	if err != nil {
		return nil, ErrCalendarRange
	}
	to, err := s.clock.ParseBound(in.EndDate, true)
	if err != nil {
		return nil, ErrCalendarRange
	}
	if from.After(to) {
		return nil, ErrCalendarRange
	}

	status := in.Status
	if status == "" {
		status = StatusApproved
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	return s.repo.ListCalendar(ctx, CalendarFilter{From: from, To: to, Status: status})
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "booking deleted", "booking_id", id)
	return nil
}

func ensureFree(ctx context.Context, repo Repository, q ConflictQuery) error {
	conflict, err := repo.HasConflict(ctx, q)
	if err != nil {
		return err
	}
	if conflict {
		return ErrTimeConflict
	}
	return nil
}

func (s *service) formatWindow(b *Booking) string {
	loc := s.clock.Location
	return fmt.Sprintf("%s %s-%s",
		b.StartTime.In(loc).Format("2006-01-02"),
		b.StartTime.In(loc).Format("15:04"),
		b.EndTime.In(loc).Format("15:04"))
}

func statusMessage(b *Booking) string {
	msg := fmt.Sprintf("Your booking of %s is now %s.", b.ResourceName, b.Status)
	if b.Status == StatusRejected && b.RejectReason != "" {
		msg += " Reason: " + b.RejectReason
	}
	return msg
}
