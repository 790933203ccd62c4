package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"busfleet/internal/model"
	"busfleet/internal/repository"
	"busfleet/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateDriverRequest struct {
	TransporterID  string `json:"transporter_id" binding:"required"`
	FullName       string `json:"full_name" binding:"required"`
	LicenseNumber  string `json:"license_number" binding:"required"`
	LicenseClass   string `json:"license_class"`
	LicenseExpires string `json:"license_expires"` // RFC3339 date, optional
	Phone          string `json:"phone"`
}

type UpdateDriverRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	LicenseNumber  string `json:"license_number" binding:"required"`
	LicenseClass   string `json:"license_class"`
	LicenseExpires string `json:"license_expires"`
	Phone          string `json:"phone"`
	IsActive       *bool  `json:"is_active"`
}

type DriverService interface {
	ListDrivers(ctx context.Context, page, limit int, transporterID string) ([]model.Driver, int64, error)
	GetDriver(ctx context.Context, id string) (*model.Driver, error)
	CreateDriver(ctx context.Context, userID string, req CreateDriverRequest) (*model.Driver, error)
	UpdateDriver(ctx context.Context, userID, id string, req UpdateDriverRequest) (*model.Driver, error)
	DeleteDriver(ctx context.Context, userID, id string) error
}

type driverService struct {
	repo            repository.DriverRepository
	transporterRepo repository.TransporterRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewDriverService(
	repo repository.DriverRepository,
	transporterRepo repository.TransporterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DriverService {
	return &driverService{
		repo:            repo,
		transporterRepo: transporterRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

func (s *driverService) ListDrivers(ctx context.Context, page, limit int, transporterID string) ([]model.Driver, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var tid *uuid.UUID
	if transporterID != "" {
		parsed, err := uuid.Parse(transporterID)
		if err != nil {
			return nil, 0, apperror.Validationf("invalid transporter_id: %s", transporterID)
		}
		tid = &parsed
	}
	return s.repo.List(ctx, page, limit, tid)
}

func (s *driverService) GetDriver(ctx context.Context, id string) (*model.Driver, error) {
	did, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid driver id: %s", id)
	}
	driver, err := s.repo.FindByID(ctx, did)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("driver", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return driver, nil
}

func (s *driverService) CreateDriver(ctx context.Context, userID string, req CreateDriverRequest) (*model.Driver, error) {
	tid, err := uuid.Parse(req.TransporterID)
	if err != nil {
		return nil, apperror.Validationf("invalid transporter_id: %s", req.TransporterID)
	}
	if _, err := s.transporterRepo.FindByID(ctx, tid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("transporter", req.TransporterID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	expires, err := parseDate(req.LicenseExpires)
	if err != nil {
		return nil, err
	}

	driver := &model.Driver{
		TransporterID:  tid,
		FullName:       req.FullName,
		LicenseNumber:  req.LicenseNumber,
		LicenseClass:   req.LicenseClass,
		LicenseExpires: expires,
		Phone:          req.Phone,
		IsActive:       true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, driver); err != nil {
			return fmt.Errorf("failed to create driver: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit(txCtx, userID, model.ActionCreateDriver, driver.ID.String(), driver.FullName, string(details))
	})
	if err != nil {
		return nil, err
	}

	return driver, nil
}

func (s *driverService) UpdateDriver(ctx context.Context, userID, id string, req UpdateDriverRequest) (*model.Driver, error) {
	driver, err := s.GetDriver(ctx, id)
	if err != nil {
		return nil, err
	}

	expires, err := parseDate(req.LicenseExpires)
	if err != nil {
		return nil, err
	}

	driver.FullName = req.FullName
	driver.LicenseNumber = req.LicenseNumber
	driver.LicenseClass = req.LicenseClass
	if expires != nil {
		driver.LicenseExpires = expires
	}
	driver.Phone = req.Phone
	if req.IsActive != nil {
		driver.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, driver); err != nil {
			return fmt.Errorf("failed to update driver: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit(txCtx, userID, model.ActionUpdateDriver, driver.ID.String(), driver.FullName, string(details))
	})
	if err != nil {
		return nil, err
	}

	return driver, nil
}

func (s *driverService) DeleteDriver(ctx context.Context, userID, id string) error {
	driver, err := s.GetDriver(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, driver.ID); err != nil {
			return fmt.Errorf("failed to delete driver: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteDriver, driver.ID.String(), driver.FullName, `{"deleted": true}`)
	})
}

func (s *driverService) audit(txCtx context.Context, userID, action, entityID, entityName, details string) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.auditRepo.Log(txCtx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Accept plain dates as well
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, apperror.Validationf("invalid date %q, expected RFC3339 or YYYY-MM-DD", raw)
		}
	}
	return &t, nil
}
