package circular

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("circular not found")

type (
	Repository interface {
		CreateCircular(ctx context.Context, circ Circular) (Circular, error)
		GetCircularByID(ctx context.Context, id string) (Circular, error)
		QueryCirculars(ctx context.Context, filter *QueryFilter) ([]Circular, error)
		UpdateCircular(ctx context.Context, circ Circular) (Circular, error)
		DeleteCircularsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID, createdBy string, nc NewCircular) (Circular, error) {
	now := time.Now().UTC()
	circ := Circular{
		SchoolID:  schoolID,
		Title:     nc.Title,
		Body:      nc.Body,
		Audience:  nc.Audience,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCircular(ctx, circ)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Circular, error) {
	return svc.repo.GetCircularByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Circular, error) {
	return svc.repo.QueryCirculars(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCircular) (Circular, error) {
	circ := Circular{
		ID:        id,
		Title:     uc.Title,
		Body:      uc.Body,
		Audience:  uc.Audience,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateCircular(ctx, circ)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCircularsByID(ctx, ids...)
}
