package repository

import (
	"context"
	"strings"

	"safaristay/internal/domain"

	"gorm.io/gorm"
)

// CatalogRepository is the read side of properties, packages, rooms and
// amenities used for pricing.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *CatalogRepository) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	var p domain.Package
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// RoomsByID returns the property's rooms among ids, keyed by id.
func (r *CatalogRepository) RoomsByID(ctx context.Context, propertyID string, ids []string) (map[string]domain.Room, error) {
	out := make(map[string]domain.Room, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Room
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND id IN ?", propertyID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, room := range rows {
		out[room.ID] = room
	}
	return out, nil
}

// AmenitiesByID returns the active amenities among ids, keyed by id. Ids that
// do not resolve are simply absent.
func (r *CatalogRepository) AmenitiesByID(ctx context.Context, ids []string) (map[string]domain.Amenity, error) {
	out := make(map[string]domain.Amenity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Amenity
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}

// CatalogFilter narrows the browse listings. Empty fields match everything.
type CatalogFilter struct {
	Location string
	Category string
	Type     string
	Guests   int
}

func (r *CatalogRepository) ListProperties(ctx context.Context, f CatalogFilter) ([]domain.Property, error) {
	q := r.db.WithContext(ctx).Model(&domain.Property{})
	if f.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Guests > 0 {
		q = q.Where("max_guests >= ?", f.Guests)
	}
	var rows []domain.Property
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RoomsForProperty lists the rooms open for booking.
func (r *CatalogRepository) RoomsForProperty(ctx context.Context, propertyID string) ([]domain.Room, error) {
	var rows []domain.Room
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND available = ?", propertyID, true).
		Order("price_per_night ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepository) ListPackages(ctx context.Context, f CatalogFilter) ([]domain.Package, error) {
	q := r.db.WithContext(ctx).Model(&domain.Package{})
	if f.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Guests > 0 {
		q = q.Where("max_guests >= ?", f.Guests)
	}
	var rows []domain.Package
	if err := q.Order("price ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepository) ListAmenities(ctx context.Context, category string) ([]domain.Amenity, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []domain.Amenity
	if err := q.Order("category ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepository) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *CatalogRepository) GetAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	var a domain.Amenity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *CatalogRepository) CreateProperty(ctx context.Context, p *domain.Property) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *CatalogRepository) SaveProperty(ctx context.Context, p *domain.Property) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

// DeleteProperty removes the property with its rooms and detaches packages
// that used it as accommodation.
func (r *CatalogRepository) DeleteProperty(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&domain.Property{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("property_id = ?", id).Delete(&domain.Room{}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Package{}).
			Where("property_id = ?", id).
			Update("property_id", nil).Error
	})
}

// CreateRoom inserts room. An explicit Available=false survives the column
// default.
func (r *CatalogRepository) CreateRoom(ctx context.Context, room *domain.Room) error {
	available := room.Available
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return translate(err)
		}
		if !available {
			room.Available = false
			return tx.Model(room).Update("available", false).Error
		}
		return nil
	})
}

func (r *CatalogRepository) SaveRoom(ctx context.Context, room *domain.Room) error {
	return translate(r.db.WithContext(ctx).Save(room).Error)
}

func (r *CatalogRepository) DeleteRoom(ctx context.Context, id string) error {
	return deleteByID[domain.Room](ctx, r.db, id)
}

func (r *CatalogRepository) CreatePackage(ctx context.Context, p *domain.Package) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *CatalogRepository) SavePackage(ctx context.Context, p *domain.Package) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *CatalogRepository) DeletePackage(ctx context.Context, id string) error {
	return deleteByID[domain.Package](ctx, r.db, id)
}

// CreateAmenity inserts a. An explicit Active=false survives the column
// default.
func (r *CatalogRepository) CreateAmenity(ctx context.Context, a *domain.Amenity) error {
	active := a.Active
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return translate(err)
		}
		if !active {
			a.Active = false
			return tx.Model(a).Update("active", false).Error
		}
		return nil
	})
}

func (r *CatalogRepository) SaveAmenity(ctx context.Context, a *domain.Amenity) error {
	return translate(r.db.WithContext(ctx).Save(a).Error)
}

func (r *CatalogRepository) DeleteAmenity(ctx context.Context, id string) error {
	return deleteByID[domain.Amenity](ctx, r.db, id)
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
