package issuereport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

const relatedType = "issue_report"

// ResourceFinder resolves a resource that is not soft-deleted.
type ResourceFinder interface {
	FindBookable(ctx context.Context, id string) (*resource.Resource, error)
}

// Notifier delivers an inbox message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID, title, content, relatedType, relatedID string)
}

// FileRemover deletes uploaded images once their report is gone.
type FileRemover interface {
	Delete(ctx context.Context, id string) error
}

type CreateInput struct {
	ResourceID  string
	Title       string
	Description string
	ImageIDs    []string
}

type ListInput struct {
	ResourceID string
	Status     Status
	Page       int
	Limit      int
}

type Service interface {
	// Validate checks the text fields and the resource before any image is
	// stored, so a bad request leaves no files behind.
	Validate(ctx context.Context, in CreateInput) error
	Create(ctx context.Context, actor user.Actor, in CreateInput) (*IssueReport, error)
	List(ctx context.Context, actor user.Actor, in ListInput) ([]*IssueReport, int, error)
	Get(ctx context.Context, actor user.Actor, id string) (*IssueReport, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*IssueReport, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo      Repository
	resources ResourceFinder
	notifier  Notifier
	files     FileRemover
}

func NewService(repo Repository, resources ResourceFinder, notifier Notifier, files FileRemover) Service {
	return &service{
		repo:      repo,
		resources: resources,
		notifier:  notifier,
		files:     files,
	}
}

func (s *service) Validate(ctx context.Context, in CreateInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrDescriptionRequired
	}
	_, err := s.resources.FindBookable(ctx, in.ResourceID)
	return err
}

func (s *service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*IssueReport, error) {
	if err := s.Validate(ctx, in); err != nil {
		return nil, err
	}

	ir := &IssueReport{
		UserID:      actor.UserID,
		ResourceID:  in.ResourceID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageIDs:    in.ImageIDs,
		Status:      StatusNew,
	}
	if err := s.repo.Create(ctx, ir); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, ir.ID)
}

func (s *service) List(ctx context.Context, actor user.Actor, in ListInput) ([]*IssueReport, int, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	filter := Filter{
		ResourceID: in.ResourceID,
		Status:     in.Status,
		Page:       in.Page,
		Limit:      in.Limit,
	}
	if actor.IsStudent() {
		filter.UserID = actor.UserID
	}

	return s.repo.List(ctx, filter)
}

func (s *service) Get(ctx context.Context, actor user.Actor, id string) (*IssueReport, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	ir, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsStudent() && ir.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return ir, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (*IssueReport, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	ir, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ir.Status == status {
		return ir, nil
	}

	ir.Status = status
	if err := s.repo.UpdateStatus(ctx, ir); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, ir.UserID, "Issue report status changed",
		fmt.Sprintf("Your issue report %q is now %s.", ir.Title, ir.Status),
		relatedType, ir.ID)
	return ir, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ir, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, fileID := range ir.ImageIDs {
		if err := s.files.Delete(ctx, fileID); err != nil {
			slog.WarnContext(ctx, "failed to delete issue report image",
				"issue_report_id", id, "file_id", fileID, "error", err)
		}
	}
	return nil
}
