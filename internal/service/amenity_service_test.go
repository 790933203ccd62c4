package service

import (
	"context"
	"testing"

	"busfleet/internal/model"
	"busfleet/internal/repository"
	"busfleet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAmenityService(t *testing.T) (AmenityService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewAmenityService(
		repository.NewAmenityRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
	return svc, db
}

func TestAmenityLifecycle(t *testing.T) {
	svc, db := newAmenityService(t)
	ctx := context.Background()
	userID := uuid.NewString()

	created, err := svc.CreateAmenity(ctx, userID, CreateAmenityRequest{
		Code: "WIFI",
		Name: "Onboard WiFi",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	updated, err := svc.UpdateAmenity(ctx, userID, created.ID.String(), UpdateAmenityRequest{
		Code:        "WIFI",
		Name:        "Onboard WiFi",
		Description: "Free on all routes",
	})
	require.NoError(t, err)
	assert.Equal(t, "Free on all routes", updated.Description)

	list, err := svc.ListAmenities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteAmenity(ctx, userID, created.ID.String()))

	list, err = svc.ListAmenities(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Every mutation left an audit row in the same transaction.
	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).Count(&audits).Error)
	assert.EqualValues(t, 3, audits)
}

func TestAmenityNotFound(t *testing.T) {
	svc, _ := newAmenityService(t)
	ctx := context.Background()

	_, err := svc.UpdateAmenity(ctx, uuid.NewString(), uuid.NewString(), UpdateAmenityRequest{Code: "X", Name: "X"})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	err = svc.DeleteAmenity(ctx, uuid.NewString(), "not-a-uuid")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
