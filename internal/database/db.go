package database

import (
	"log"

	"busfleet/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// seatNumberIndex enforces seat-number uniqueness only where it matters:
// among active SEAT rows of the same diagram. Deactivated rows keep their
// historical number without blocking reuse, and non-seat spaces carry no
// number at all.
const seatNumberIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_spaces_active_seat_number
ON spaces (diagram_model_id, seat_number)
WHERE active AND space_type = 'SEAT'`

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs the schema migration for all models plus the partial unique
// index the seat reconciler relies on. Shared with the test setup.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Transporter{},
		&model.Driver{},
		&model.Amenity{},
		&model.DiagramModel{},
		&model.DiagramFloor{},
		&model.Space{},
		&model.AuditLog{},
	)
	if err != nil {
		return err
	}

	return db.Exec(seatNumberIndex).Error
}
