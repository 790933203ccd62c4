package repository

import (
	"context"

	"busfleet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SpaceRepository is the sole writer path for space rows. The reconciler and
// the regeneration path call it exclusively through a transaction context.
type SpaceRepository interface {
	CreateBatch(ctx context.Context, spaces []model.Space) error
	Update(ctx context.Context, space *model.Space) error
	UpdateSeatNumber(ctx context.Context, id uuid.UUID, seatNumber string) error
	Deactivate(ctx context.Context, id uuid.UUID, seatNumber *string) error
	FindByDiagram(ctx context.Context, diagramID uuid.UUID, activeOnly bool) ([]model.Space, error)
	CountActiveSeats(ctx context.Context, diagramID uuid.UUID) (int64, error)
	DeleteByDiagram(ctx context.Context, diagramID uuid.UUID) error
}

type spaceRepository struct {
	db *gorm.DB
}

func NewSpaceRepository(db *gorm.DB) SpaceRepository {
	return &spaceRepository{db: db}
}

// CreateBatch inserts many spaces (and their amenity references) in one round trip.
func (r *spaceRepository) CreateBatch(ctx context.Context, spaces []model.Space) error {
	if len(spaces) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).CreateInBatches(&spaces, 200).Error
}

// Update persists the full row state, then replaces the amenity associations
// so removed amenities are detached as well.
func (r *spaceRepository) Update(ctx context.Context, space *model.Space) error {
	db := GetDB(ctx, r.db)
	if err := db.Omit(clause.Associations).Save(space).Error; err != nil {
		return err
	}
	if len(space.Amenities) == 0 {
		return db.Model(space).Association("Amenities").Clear()
	}
	return db.Model(space).Association("Amenities").Replace(&space.Amenities)
}

// UpdateSeatNumber rewrites only the seat_number column. Used by the
// temporization phase of reconciliation.
func (r *spaceRepository) UpdateSeatNumber(ctx context.Context, id uuid.UUID, seatNumber string) error {
	return GetDB(ctx, r.db).Model(&model.Space{}).
		Where("id = ?", id).
		Update("seat_number", seatNumber).Error
}

// Deactivate clears the active flag and restores the given seat number (the
// row may hold a temporary placeholder at this point). Inactive rows sit
// outside the partial unique index, so restoring the number is always safe.
func (r *spaceRepository) Deactivate(ctx context.Context, id uuid.UUID, seatNumber *string) error {
	return GetDB(ctx, r.db).Model(&model.Space{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "seat_number": seatNumber}).Error
}

func (r *spaceRepository) FindByDiagram(ctx context.Context, diagramID uuid.UUID, activeOnly bool) ([]model.Space, error) {
	var spaces []model.Space
	db := GetDB(ctx, r.db).Preload("Amenities").Where("diagram_model_id = ?", diagramID)
	if activeOnly {
		db = db.Where("active = ?", true)
	}
	if err := db.Order("floor_number, pos_y, pos_x").Find(&spaces).Error; err != nil {
		return nil, err
	}
	return spaces, nil
}

func (r *spaceRepository) CountActiveSeats(ctx context.Context, diagramID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Space{}).
		Where("diagram_model_id = ? AND space_type = ? AND active = ?", diagramID, model.SpaceTypeSeat, true).
		Count(&total).Error
	return total, err
}

// DeleteByDiagram hard-deletes every space of a diagram. Only the full
// regeneration path uses it; reconciliation never deletes rows.
func (r *spaceRepository) DeleteByDiagram(ctx context.Context, diagramID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("diagram_model_id = ?", diagramID).Delete(&model.Space{}).Error
}
