package repository

import (
	"context"

	"busfleet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AmenityRepository interface {
	Create(ctx context.Context, amenity *model.Amenity) error
	Update(ctx context.Context, amenity *model.Amenity) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Amenity, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Amenity, error)
	List(ctx context.Context) ([]model.Amenity, error)
}

type amenityRepository struct {
	db *gorm.DB
}

func NewAmenityRepository(db *gorm.DB) AmenityRepository {
	return &amenityRepository{db: db}
}

func (r *amenityRepository) Create(ctx context.Context, amenity *model.Amenity) error {
	return GetDB(ctx, r.db).Create(amenity).Error
}

func (r *amenityRepository) Update(ctx context.Context, amenity *model.Amenity) error {
	return GetDB(ctx, r.db).Save(amenity).Error
}

func (r *amenityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Amenity{}).Error
}

func (r *amenityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Amenity, error) {
	var amenity model.Amenity
	if err := GetDB(ctx, r.db).First(&amenity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &amenity, nil
}

func (r *amenityRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Amenity, error) {
	var amenities []model.Amenity
	if len(ids) == 0 {
		return amenities, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&amenities).Error; err != nil {
		return nil, err
	}
	return amenities, nil
}

func (r *amenityRepository) List(ctx context.Context) ([]model.Amenity, error) {
	var amenities []model.Amenity
	if err := GetDB(ctx, r.db).Order("code").Find(&amenities).Error; err != nil {
		return nil, err
	}
	return amenities, nil
}
