package catalog

import (
	"context"
	"errors"
	"fmt"

	"safaristay/internal/domain"
	"safaristay/internal/repository"
)

type Repository interface {
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	GetAmenity(ctx context.Context, id string) (*domain.Amenity, error)
	ListProperties(ctx context.Context, f repository.CatalogFilter) ([]domain.Property, error)
	RoomsForProperty(ctx context.Context, propertyID string) ([]domain.Room, error)
	ListPackages(ctx context.Context, f repository.CatalogFilter) ([]domain.Package, error)
	ListAmenities(ctx context.Context, category string) ([]domain.Amenity, error)

	CreateProperty(ctx context.Context, p *domain.Property) error
	SaveProperty(ctx context.Context, p *domain.Property) error
	DeleteProperty(ctx context.Context, id string) error
	CreateRoom(ctx context.Context, room *domain.Room) error
	SaveRoom(ctx context.Context, room *domain.Room) error
	DeleteRoom(ctx context.Context, id string) error
	CreatePackage(ctx context.Context, p *domain.Package) error
	SavePackage(ctx context.Context, p *domain.Package) error
	DeletePackage(ctx context.Context, id string) error
	CreateAmenity(ctx context.Context, a *domain.Amenity) error
	SaveAmenity(ctx context.Context, a *domain.Amenity) error
	DeleteAmenity(ctx context.Context, id string) error
}

// Service serves catalog browsing and the admin inventory operations in
// admin.go.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Properties(ctx context.Context, q ListQuery) ([]domain.Property, error) {
	return s.repo.ListProperties(ctx, filterFrom(q))
}

func (s *Service) Property(ctx context.Context, id string) (*PropertyDetail, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return nil, notFound(err, "property", id)
	}
	rooms, err := s.repo.RoomsForProperty(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	return &PropertyDetail{Property: *p, Rooms: rooms}, nil
}

func (s *Service) Packages(ctx context.Context, q ListQuery) ([]domain.Package, error) {
	return s.repo.ListPackages(ctx, filterFrom(q))
}

// Package resolves the accommodation property as well. A dangling property id
// is not an error; the package is returned without it.
func (s *Service) Package(ctx context.Context, id string) (*PackageDetail, error) {
	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, notFound(err, "package", id)
	}
	out := &PackageDetail{Package: *p}
	if p.PropertyID != nil && *p.PropertyID != "" {
		prop, err := s.repo.GetProperty(ctx, *p.PropertyID)
		switch {
		case err == nil:
			out.Accommodation = prop
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) Amenities(ctx context.Context, category string) ([]domain.Amenity, error) {
	return s.repo.ListAmenities(ctx, category)
}

func filterFrom(q ListQuery) repository.CatalogFilter {
	return repository.CatalogFilter{
		Location: q.Location,
		Category: q.Category,
		Type:     q.Type,
		Guests:   q.Guests,
	}
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
	}
	return err
}
