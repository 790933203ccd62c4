package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"busfleet/internal/model"
	"busfleet/internal/repository"
	"busfleet/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateTransporterRequest struct {
	Name          string `json:"name" binding:"required"`
	LegalName     string `json:"legal_name"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
}

type UpdateTransporterRequest struct {
	Name          string `json:"name" binding:"required"`
	LegalName     string `json:"legal_name"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	IsActive      *bool  `json:"is_active"`
}

type TransporterService interface {
	ListTransporters(ctx context.Context, page, limit int, search string) ([]model.Transporter, int64, error)
	GetTransporter(ctx context.Context, id string) (*model.Transporter, error)
	CreateTransporter(ctx context.Context, userID string, req CreateTransporterRequest) (*model.Transporter, error)
	UpdateTransporter(ctx context.Context, userID, id string, req UpdateTransporterRequest) (*model.Transporter, error)
	DeleteTransporter(ctx context.Context, userID, id string) error
}

type transporterService struct {
	repo      repository.TransporterRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewTransporterService(
	repo repository.TransporterRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TransporterService {
	return &transporterService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func (s *transporterService) ListTransporters(ctx context.Context, page, limit int, search string) ([]model.Transporter, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit, search)
}

func (s *transporterService) GetTransporter(ctx context.Context, id string) (*model.Transporter, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid transporter id: %s", id)
	}
	transporter, err := s.repo.FindByID(ctx, tid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("transporter", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return transporter, nil
}

func (s *transporterService) CreateTransporter(ctx context.Context, userID string, req CreateTransporterRequest) (*model.Transporter, error) {
	transporter := &model.Transporter{
		Name:          req.Name,
		LegalName:     req.LegalName,
		TaxCode:       req.TaxCode,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, transporter); err != nil {
			return fmt.Errorf("failed to create transporter: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit(txCtx, userID, model.ActionCreateTransporter, transporter.ID.String(), transporter.Name, string(details))
	})
	if err != nil {
		return nil, err
	}

	return transporter, nil
}

func (s *transporterService) UpdateTransporter(ctx context.Context, userID, id string, req UpdateTransporterRequest) (*model.Transporter, error) {
	transporter, err := s.GetTransporter(ctx, id)
	if err != nil {
		return nil, err
	}

	transporter.Name = req.Name
	transporter.LegalName = req.LegalName
	transporter.TaxCode = req.TaxCode
	transporter.ContactPerson = req.ContactPerson
	transporter.Phone = req.Phone
	transporter.Email = req.Email
	if req.IsActive != nil {
		transporter.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, transporter); err != nil {
			return fmt.Errorf("failed to update transporter: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit(txCtx, userID, model.ActionUpdateTransporter, transporter.ID.String(), transporter.Name, string(details))
	})
	if err != nil {
		return nil, err
	}

	return transporter, nil
}

func (s *transporterService) DeleteTransporter(ctx context.Context, userID, id string) error {
	transporter, err := s.GetTransporter(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, transporter.ID); err != nil {
			return fmt.Errorf("failed to delete transporter: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteTransporter, transporter.ID.String(), transporter.Name, `{"deleted": true}`)
	})
}

func (s *transporterService) audit(txCtx context.Context, userID, action, entityID, entityName, details string) error {
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
