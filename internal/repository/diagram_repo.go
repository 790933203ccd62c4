package repository

import (
	"context"

	"busfleet/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiagramRepository interface {
	Create(ctx context.Context, diagram *model.DiagramModel) error
	Save(ctx context.Context, diagram *model.DiagramModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DiagramModel, error)
	List(ctx context.Context, page, limit int, search string) ([]model.DiagramModel, int64, error)
	UpdateTotalSeats(ctx context.Context, id uuid.UUID, total int) error
	ReplaceFloors(ctx context.Context, diagramID uuid.UUID, floors []model.DiagramFloor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type diagramRepository struct {
	db *gorm.DB
}

func NewDiagramRepository(db *gorm.DB) DiagramRepository {
	return &diagramRepository{db: db}
}

func (r *diagramRepository) Create(ctx context.Context, diagram *model.DiagramModel) error {
	return GetDB(ctx, r.db).Create(diagram).Error
}

func (r *diagramRepository) Save(ctx context.Context, diagram *model.DiagramModel) error {
	return GetDB(ctx, r.db).Omit("Floors", "Transporter").Save(diagram).Error
}

func (r *diagramRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DiagramModel, error) {
	var diagram model.DiagramModel
	err := GetDB(ctx, r.db).
		Preload("Floors", func(db *gorm.DB) *gorm.DB { return db.Order("floor_number") }).
		First(&diagram, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &diagram, nil
}

func (r *diagramRepository) List(ctx context.Context, page, limit int, search string) ([]model.DiagramModel, int64, error) {
	var diagrams []model.DiagramModel
	var total int64

	db := GetDB(ctx, r.db).Model(&model.DiagramModel{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Floors").Order("created_at desc").Offset(offset).Limit(limit).Find(&diagrams).Error; err != nil {
		return nil, 0, err
	}

	return diagrams, total, nil
}

func (r *diagramRepository) UpdateTotalSeats(ctx context.Context, id uuid.UUID, total int) error {
	return GetDB(ctx, r.db).Model(&model.DiagramModel{}).
		Where("id = ?", id).
		Update("total_seats", total).Error
}

// ReplaceFloors swaps the diagram's floor template in place. Used when a
// regeneration request changes the template.
func (r *diagramRepository) ReplaceFloors(ctx context.Context, diagramID uuid.UUID, floors []model.DiagramFloor) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("diagram_model_id = ?", diagramID).Delete(&model.DiagramFloor{}).Error; err != nil {
		return err
	}
	for i := range floors {
		floors[i].DiagramModelID = diagramID
	}
	if len(floors) == 0 {
		return nil
	}
	return db.Create(&floors).Error
}

func (r *diagramRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.DiagramModel{}).Error
}
