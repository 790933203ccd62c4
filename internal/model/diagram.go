package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SpaceType enum constants: every physical unit inside a floor layout is one of these.
const (
	SpaceTypeSeat     = "SEAT"
	SpaceTypeStairs   = "STAIRS"
	SpaceTypeHallway  = "HALLWAY"
	SpaceTypeBathroom = "BATHROOM"
	SpaceTypeEmpty    = "EMPTY"
)

// SeatType constants
const (
	SeatTypeRegular = "REGULAR"
	SeatTypePremium = "PREMIUM"
	SeatTypeVIP     = "VIP"
)

// DiagramModel is the parent seat-diagram template of a bus model. It owns the
// per-floor row/column template and a derived count of active seats.
type DiagramModel struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	TransporterID *uuid.UUID     `gorm:"type:uuid;index" json:"transporter_id"`
	Transporter   *Transporter   `gorm:"foreignKey:TransporterID" json:"transporter,omitempty"`
	NumFloors     int            `gorm:"type:int;not null" json:"num_floors"`
	TotalSeats    int            `gorm:"type:int;default:0;not null" json:"total_seats"` // derived: count of active SEAT spaces
	MaxCapacity   int            `gorm:"type:int;default:0" json:"max_capacity"`
	Floors        []DiagramFloor `gorm:"foreignKey:DiagramModelID;constraint:OnDelete:CASCADE" json:"floors"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *DiagramModel) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// FloorTemplate returns the template for the given floor number, or nil.
func (d *DiagramModel) FloorTemplate(floorNumber int) *DiagramFloor {
	for i := range d.Floors {
		if d.Floors[i].FloorNumber == floorNumber {
			return &d.Floors[i]
		}
	}
	return nil
}

// DiagramFloor holds the row/column template of a single floor.
type DiagramFloor struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DiagramModelID uuid.UUID `gorm:"type:uuid;not null;index" json:"diagram_model_id"`
	FloorNumber    int       `gorm:"type:int;not null" json:"floor_number"`
	NumRows        int       `gorm:"type:int;not null" json:"num_rows"`
	SeatsLeft      int       `gorm:"type:int;not null" json:"seats_left"`
	SeatsRight     int       `gorm:"type:int;not null" json:"seats_right"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (f *DiagramFloor) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Space is a single physical unit inside a floor layout. Seat-only attributes
// (seat number, seat type, amenities, reclinement angle) are meaningful only
// when SpaceType is SEAT. Uniqueness of SeatNumber is enforced by a partial
// index covering active SEAT rows per diagram (see database.Migrate).
//
// Spaces removed from a configuration are deactivated, never hard-deleted, so
// historical seat-number references stay resolvable. Only full regeneration
// hard-deletes the set.
type Space struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DiagramModelID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"diagram_model_id"`
	SpaceType        string           `gorm:"type:varchar(20);not null" json:"space_type"`
	SeatNumber       *string          `gorm:"type:varchar(64)" json:"seat_number,omitempty"`
	FloorNumber      int              `gorm:"type:int;not null" json:"floor_number"`
	SeatType         string           `gorm:"type:varchar(20)" json:"seat_type,omitempty"`
	Amenities        []Amenity        `gorm:"many2many:space_amenities;" json:"amenities"`
	ReclinementAngle *decimal.Decimal `gorm:"type:decimal(5,2)" json:"reclinement_angle,omitempty"`
	PosX             int              `gorm:"column:pos_x;not null" json:"pos_x"`
	PosY             int              `gorm:"column:pos_y;not null" json:"pos_y"`
	Meta             datatypes.JSON   `gorm:"type:jsonb" json:"meta,omitempty"`
	Active           bool             `gorm:"not null;default:true;index" json:"active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (s *Space) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// PositionKey is the stable matching identity of a space across edits. Seat
// numbers are mutable business data; position is not.
func (s *Space) PositionKey() string {
	return fmt.Sprintf("%d:%d:%d", s.FloorNumber, s.PosX, s.PosY)
}

// SeatNumberValue returns the seat number or "" when unset.
func (s *Space) SeatNumberValue() string {
	if s.SeatNumber == nil {
		return ""
	}
	return *s.SeatNumber
}
