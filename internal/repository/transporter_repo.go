package repository

import (
	"context"

	"busfleet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransporterRepository interface {
	Create(ctx context.Context, transporter *model.Transporter) error
	Update(ctx context.Context, transporter *model.Transporter) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transporter, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Transporter, int64, error)
}

type transporterRepository struct {
	db *gorm.DB
}

func NewTransporterRepository(db *gorm.DB) TransporterRepository {
	return &transporterRepository{db: db}
}

func (r *transporterRepository) Create(ctx context.Context, transporter *model.Transporter) error {
	return GetDB(ctx, r.db).Create(transporter).Error
}

func (r *transporterRepository) Update(ctx context.Context, transporter *model.Transporter) error {
	return GetDB(ctx, r.db).Save(transporter).Error
}

func (r *transporterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Transporter{}).Error
}

func (r *transporterRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transporter, error) {
	var transporter model.Transporter
	if err := GetDB(ctx, r.db).First(&transporter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transporter, nil
}

func (r *transporterRepository) List(ctx context.Context, page, limit int, search string) ([]model.Transporter, int64, error) {
	var transporters []model.Transporter
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Transporter{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&transporters).Error; err != nil {
		return nil, 0, err
	}

	return transporters, total, nil
}
