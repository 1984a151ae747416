package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safaristay/internal/domain"
	"safaristay/internal/pkg/validator"
	"safaristay/internal/repository"

	"github.com/google/uuid"
)

const defaultCurrency = "USD"

func (s *Service) CreateProperty(ctx context.Context, in PropertyInput) (*domain.Property, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	p := &domain.Property{ID: newID(in.ID)}
	applyProperty(p, in)
	if err := s.repo.CreateProperty(ctx, p); err != nil {
		return nil, writeErr(err, "property", p.ID)
	}
	return p, nil
}

func (s *Service) UpdateProperty(ctx context.Context, id string, in PropertyInput) (*domain.Property, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return nil, notFound(err, "property", id)
	}
	applyProperty(p, in)
	if err := s.repo.SaveProperty(ctx, p); err != nil {
		return nil, writeErr(err, "property", id)
	}
	return p, nil
}

func (s *Service) DeleteProperty(ctx context.Context, id string) error {
	return notFound(s.repo.DeleteProperty(ctx, id), "property", id)
}

// CreateRoom adds a room to an existing property.
func (s *Service) CreateRoom(ctx context.Context, propertyID string, in RoomInput) (*domain.Room, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProperty(ctx, propertyID); err != nil {
		return nil, notFound(err, "property", propertyID)
	}
	room := &domain.Room{ID: newID(in.ID), PropertyID: propertyID, Available: true}
	applyRoom(room, in)
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, writeErr(err, "room", room.ID)
	}
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, id string, in RoomInput) (*domain.Room, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, notFound(err, "room", id)
	}
	applyRoom(room, in)
	if err := s.repo.SaveRoom(ctx, room); err != nil {
		return nil, writeErr(err, "room", id)
	}
	return room, nil
}

func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	return notFound(s.repo.DeleteRoom(ctx, id), "room", id)
}

func (s *Service) CreatePackage(ctx context.Context, in PackageInput) (*domain.Package, error) {
	if err := s.checkPackage(ctx, in); err != nil {
		return nil, err
	}
	p := &domain.Package{ID: newID(in.ID)}
	applyPackage(p, in)
	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return nil, writeErr(err, "package", p.ID)
	}
	return p, nil
}

func (s *Service) UpdatePackage(ctx context.Context, id string, in PackageInput) (*domain.Package, error) {
	if err := s.checkPackage(ctx, in); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, notFound(err, "package", id)
	}
	applyPackage(p, in)
	if err := s.repo.SavePackage(ctx, p); err != nil {
		return nil, writeErr(err, "package", id)
	}
	return p, nil
}

func (s *Service) DeletePackage(ctx context.Context, id string) error {
	return notFound(s.repo.DeletePackage(ctx, id), "package", id)
}

func (s *Service) CreateAmenity(ctx context.Context, in AmenityInput) (*domain.Amenity, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	a := &domain.Amenity{ID: newID(in.ID), Active: true}
	applyAmenity(a, in)
	if err := s.repo.CreateAmenity(ctx, a); err != nil {
		return nil, writeErr(err, "amenity", a.ID)
	}
	return a, nil
}

func (s *Service) UpdateAmenity(ctx context.Context, id string, in AmenityInput) (*domain.Amenity, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	a, err := s.repo.GetAmenity(ctx, id)
	if err != nil {
		return nil, notFound(err, "amenity", id)
	}
	applyAmenity(a, in)
	if err := s.repo.SaveAmenity(ctx, a); err != nil {
		return nil, writeErr(err, "amenity", id)
	}
	return a, nil
}

func (s *Service) DeleteAmenity(ctx context.Context, id string) error {
	return notFound(s.repo.DeleteAmenity(ctx, id), "amenity", id)
}

// checkPackage also requires the accommodation property, when named, to exist.
func (s *Service) checkPackage(ctx context.Context, in PackageInput) error {
	if err := check(in); err != nil {
		return err
	}
	if in.PropertyID == nil || strings.TrimSpace(*in.PropertyID) == "" {
		return nil
	}
	_, err := s.repo.GetProperty(ctx, strings.TrimSpace(*in.PropertyID))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return &ValidationError{Fields: map[string]string{"accommodationProperty": "exists"}}
	default:
		return err
	}
}

func applyProperty(p *domain.Property, in PropertyInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Location = strings.TrimSpace(in.Location)
	p.Type = in.Type
	p.BasePricePerNight = domain.Round2(in.BasePricePerNight)
	p.Currency = strings.ToUpper(in.Currency)
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	p.MaxGuests = in.MaxGuests
}

func applyRoom(r *domain.Room, in RoomInput) {
	r.Name = strings.TrimSpace(in.Name)
	r.RoomType = in.RoomType
	r.PricePerNight = domain.Round2(in.PricePerNight)
	r.MaxGuests = in.MaxGuests
	r.Quantity = in.Quantity
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	if in.Available != nil {
		r.Available = *in.Available
	}
}

func applyPackage(p *domain.Package, in PackageInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Duration = in.Duration
	p.Location = strings.TrimSpace(in.Location)
	p.PropertyID = nil
	if in.PropertyID != nil {
		if id := strings.TrimSpace(*in.PropertyID); id != "" {
			p.PropertyID = &id
		}
	}
	p.Category = in.Category
	p.Price = domain.Round2(in.Price)
	p.MaxGuests = in.MaxGuests
}

func applyAmenity(a *domain.Amenity, in AmenityInput) {
	a.Name = strings.TrimSpace(in.Name)
	a.Price = domain.Round2(in.Price)
	a.Category = in.Category
	if in.Active != nil {
		a.Active = *in.Active
	}
}

func check(in any) error {
	if fields := validator.Validate(in); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func newID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeErr(err error, kind, id string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("%w: %s %q", ErrConflict, kind, id)
	}
	return err
}
