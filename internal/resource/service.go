package resource

import (
	"context"

	"github.com/google/uuid"
)

type Service interface {
	// FindBookable returns the resource if it exists and is not soft-deleted,
	// otherwise ErrNotFound.
	FindBookable(ctx context.Context, id string) (*Resource, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) FindBookable(ctx context.Context, id string) (*Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Deleted {
		return nil, ErrNotFound
	}
	return res, nil
}
