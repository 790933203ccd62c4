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

type CreateAmenityRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateAmenityRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type AmenityService interface {
	ListAmenities(ctx context.Context) ([]model.Amenity, error)
	CreateAmenity(ctx context.Context, userID string, req CreateAmenityRequest) (*model.Amenity, error)
	UpdateAmenity(ctx context.Context, userID, id string, req UpdateAmenityRequest) (*model.Amenity, error)
	DeleteAmenity(ctx context.Context, userID, id string) error
}

type amenityService struct {
	repo      repository.AmenityRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewAmenityService(
	repo repository.AmenityRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) AmenityService {
	return &amenityService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

func (s *amenityService) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	return s.repo.List(ctx)
}

func (s *amenityService) CreateAmenity(ctx context.Context, userID string, req CreateAmenityRequest) (*model.Amenity, error) {
	amenity := &model.Amenity{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, amenity); err != nil {
			return fmt.Errorf("failed to create amenity: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit(txCtx, userID, model.ActionCreateAmenity, amenity.ID.String(), amenity.Name, string(details))
	})
	if err != nil {
		return nil, err
	}

	return amenity, nil
}

func (s *amenityService) UpdateAmenity(ctx context.Context, userID, id string, req UpdateAmenityRequest) (*model.Amenity, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid amenity id: %s", id)
	}

	amenity, err := s.repo.FindByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("amenity", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	amenity.Code = req.Code
	amenity.Name = req.Name
	amenity.Description = req.Description

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, amenity); err != nil {
			return fmt.Errorf("failed to update amenity: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.audit(txCtx, userID, model.ActionUpdateAmenity, amenity.ID.String(), amenity.Name, string(details))
	})
	if err != nil {
		return nil, err
	}

	return amenity, nil
}

func (s *amenityService) DeleteAmenity(ctx context.Context, userID, id string) error {
	aid, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid amenity id: %s", id)
	}

	amenity, err := s.repo.FindByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("amenity", id)
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, amenity.ID); err != nil {
			return fmt.Errorf("failed to delete amenity: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteAmenity, amenity.ID.String(), amenity.Name, `{"deleted": true}`)
	})
}

func (s *amenityService) audit(txCtx context.Context, userID, action, entityID, entityName, details string) error {
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
