package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transporter represents a bus operator company whose fleet is managed here
type Transporter struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	LegalName     string         `gorm:"type:varchar(255)" json:"legal_name"`
	TaxCode       string         `gorm:"type:varchar(50)" json:"tax_code"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string         `gorm:"type:varchar(50)" json:"phone"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	Drivers       []Driver       `gorm:"foreignKey:TransporterID" json:"drivers,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Transporter) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Driver represents a driver employed by a transporter
type Driver struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TransporterID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"transporter_id"`
	Transporter    *Transporter   `gorm:"foreignKey:TransporterID" json:"transporter,omitempty"`
	FullName       string         `gorm:"type:varchar(255);not null" json:"full_name"`
	LicenseNumber  string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"license_number"`
	LicenseClass   string         `gorm:"type:varchar(20)" json:"license_class"`
	LicenseExpires *time.Time     `json:"license_expires"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
