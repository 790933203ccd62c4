package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"busfleet/internal/database"
	"busfleet/internal/layout"
	"busfleet/internal/model"
	"busfleet/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newDiagramService(db *gorm.DB) DiagramService {
	return NewDiagramService(
		repository.NewDiagramRepository(db),
		repository.NewSpaceRepository(db),
		repository.NewAmenityRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil, // no websocket hub in tests
		nil, // no queue publisher in tests
	)
}

// standardDiagram is the canonical single-floor layout: 10 rows of 2+2 with a
// center aisle, 40 seats and 10 hallway spaces.
func standardDiagram(t *testing.T, svc DiagramService) *model.DiagramModel {
	t.Helper()
	diagram, created, err := svc.CreateDiagramModel(context.Background(), uuid.NewString(), CreateDiagramRequest{
		Name:      "double-axle 40",
		NumFloors: 1,
		Floors: []FloorTemplateRequest{
			{FloorNumber: 1, NumRows: 10, SeatsLeft: 2, SeatsRight: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 50, created)
	require.Equal(t, 40, diagram.TotalSeats)
	return diagram
}

// inputsFromSpaces converts the persisted active set back into the payload
// shape, preserving every attribute.
func inputsFromSpaces(spaces []model.Space) []layout.SpaceInput {
	var inputs []layout.SpaceInput
	for i := range spaces {
		sp := &spaces[i]
		if !sp.Active {
			continue
		}
		in := layout.SpaceInput{
			SpaceType:        sp.SpaceType,
			SeatNumber:       sp.SeatNumberValue(),
			SeatType:         sp.SeatType,
			FloorNumber:      sp.FloorNumber,
			PosX:             sp.PosX,
			PosY:             sp.PosY,
			ReclinementAngle: sp.ReclinementAngle,
		}
		for _, a := range sp.Amenities {
			in.AmenityIDs = append(in.AmenityIDs, a.ID.String())
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func activeSpaces(t *testing.T, svc DiagramService, id string) []model.Space {
	t.Helper()
	detail, err := svc.GetDiagram(context.Background(), id)
	require.NoError(t, err)
	var active []model.Space
	for _, sp := range detail.Spaces {
		if sp.Active {
			active = append(active, sp)
		}
	}
	return active
}

func findByNumber(spaces []model.Space, number string) *model.Space {
	for i := range spaces {
		if spaces[i].SeatNumberValue() == number && spaces[i].SpaceType == model.SpaceTypeSeat {
			return &spaces[i]
		}
	}
	return nil
}

func TestCreateDiagramGeneratesLayout(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)

	diagram := standardDiagram(t, svc)

	detail, err := svc.GetDiagram(context.Background(), diagram.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Spaces, 50)
	assert.Equal(t, 40, detail.Diagram.TotalSeats)

	seats := 0
	for _, sp := range detail.Spaces {
		if sp.SpaceType == model.SpaceTypeSeat {
			seats++
		} else {
			assert.Equal(t, model.SpaceTypeHallway, sp.SpaceType)
			assert.Equal(t, 2, sp.PosX)
		}
	}
	assert.Equal(t, 40, seats)

	// Audit trail records the creation.
	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).Where("action = ?", model.ActionCreateDiagram).Count(&audits).Error)
	assert.EqualValues(t, 1, audits)
}

func TestReconcileUnchangedPayloadIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	payload := UpdateSeatConfigurationRequest{Spaces: inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String()))}

	for i := 0; i < 2; i++ {
		res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), payload)
		require.NoError(t, err, "pass %d", i)
		assert.Equal(t, 0, res.SeatsCreated, "pass %d", i)
		assert.Equal(t, 0, res.SeatsUpdated, "pass %d", i)
		assert.Equal(t, 0, res.SeatsDeactivated, "pass %d", i)
		assert.Equal(t, 40, res.TotalActiveSeats, "pass %d", i)
	}

	// Seat numbers survived both passes untouched.
	spaces := activeSpaces(t, svc, diagram.ID.String())
	require.NotNil(t, findByNumber(spaces, "1"))
	require.NotNil(t, findByNumber(spaces, "40"))
}

func TestReconcileSwapsSeatNumbers(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	spaces := activeSpaces(t, svc, diagram.ID.String())
	seatA := findByNumber(spaces, "1")
	seatB := findByNumber(spaces, "2")
	require.NotNil(t, seatA)
	require.NotNil(t, seatB)
	posA, posB := seatA.PositionKey(), seatB.PositionKey()

	inputs := inputsFromSpaces(spaces)
	for i := range inputs {
		switch inputs[i].SeatNumber {
		case "1":
			inputs[i].SeatNumber = "2"
		case "2":
			inputs[i].SeatNumber = "1"
		}
	}

	res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SeatsUpdated)
	assert.Equal(t, 0, res.SeatsCreated)
	assert.Equal(t, 0, res.SeatsDeactivated)
	assert.Equal(t, 40, res.TotalActiveSeats)

	after := activeSpaces(t, svc, diagram.ID.String())
	newA, newB := findByNumber(after, "1"), findByNumber(after, "2")
	require.NotNil(t, newA)
	require.NotNil(t, newB)
	assert.Equal(t, posB, newA.PositionKey())
	assert.Equal(t, posA, newB.PositionKey())
}

func TestReconcileShiftsWholeNumbering(t *testing.T) {
	// Every seat moves up by one: 1..40 becomes 2..41. Without the
	// temporization pass each individual update would collide with a
	// neighbour still holding the target number.
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)

	inputs := inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String()))
	for i := range inputs {
		if inputs[i].SpaceType != model.SpaceTypeSeat {
			continue
		}
		var n int
		fmt.Sscanf(inputs[i].SeatNumber, "%d", &n)
		inputs[i].SeatNumber = fmt.Sprintf("%d", n+1)
	}

	res, err := svc.BatchUpdateSeatConfiguration(context.Background(), uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)
	assert.Equal(t, 40, res.SeatsUpdated)
	assert.Equal(t, 40, res.TotalActiveSeats)

	after := activeSpaces(t, svc, diagram.ID.String())
	assert.Nil(t, findByNumber(after, "1"))
	require.NotNil(t, findByNumber(after, "41"))
}

func TestReconcileDeactivatesMissingSpaces(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	spaces := activeSpaces(t, svc, diagram.ID.String())
	removed := findByNumber(spaces, "40")
	require.NotNil(t, removed)

	var inputs []layout.SpaceInput
	for _, in := range inputsFromSpaces(spaces) {
		if in.SeatNumber == "40" {
			continue
		}
		inputs = append(inputs, in)
	}

	res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SeatsDeactivated)
	assert.Equal(t, 39, res.TotalActiveSeats)

	// The row still exists, inactive, with its original number intact.
	var row model.Space
	require.NoError(t, db.First(&row, "id = ?", removed.ID).Error)
	assert.False(t, row.Active)
	assert.Equal(t, "40", row.SeatNumberValue())

	// Derived total was recomputed in the same transaction.
	var reloaded model.DiagramModel
	require.NoError(t, db.First(&reloaded, "id = ?", diagram.ID).Error)
	assert.Equal(t, 39, reloaded.TotalSeats)
}

func TestReconcileCreatesSeatOverDeactivatedPosition(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	spaces := activeSpaces(t, svc, diagram.ID.String())
	target := findByNumber(spaces, "40")
	require.NotNil(t, target)

	// Drop seat 40.
	var withoutTarget []layout.SpaceInput
	for _, in := range inputsFromSpaces(spaces) {
		if in.SeatNumber == "40" {
			continue
		}
		withoutTarget = append(withoutTarget, in)
	}
	_, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: withoutTarget})
	require.NoError(t, err)

	// Re-add a seat at the same position under a fresh number. The
	// deactivated row is not resurrected; a new row is created.
	readded := append(withoutTarget, layout.SpaceInput{
		SpaceType:   model.SpaceTypeSeat,
		SeatNumber:  "40B",
		SeatType:    model.SeatTypeRegular,
		FloorNumber: target.FloorNumber,
		PosX:        target.PosX,
		PosY:        target.PosY,
	})
	res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: readded})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SeatsCreated)
	assert.Equal(t, 40, res.TotalActiveSeats)

	var rows []model.Space
	require.NoError(t, db.Where("diagram_model_id = ? AND floor_number = ? AND pos_x = ? AND pos_y = ?",
		diagram.ID, target.FloorNumber, target.PosX, target.PosY).Find(&rows).Error)
	require.Len(t, rows, 2)

	var actives, inactives int
	for _, row := range rows {
		if row.Active {
			actives++
			assert.Equal(t, "40B", row.SeatNumberValue())
		} else {
			inactives++
			assert.Equal(t, "40", row.SeatNumberValue())
		}
	}
	assert.Equal(t, 1, actives)
	assert.Equal(t, 1, inactives)
}

func TestReconcileConvertsSeatToBathroom(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	spaces := activeSpaces(t, svc, diagram.ID.String())
	target := findByNumber(spaces, "1")
	require.NotNil(t, target)

	inputs := inputsFromSpaces(spaces)
	for i := range inputs {
		if inputs[i].SeatNumber == "1" {
			inputs[i] = layout.SpaceInput{
				SpaceType:   model.SpaceTypeBathroom,
				FloorNumber: inputs[i].FloorNumber,
				PosX:        inputs[i].PosX,
				PosY:        inputs[i].PosY,
			}
		}
	}

	res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SeatsUpdated)
	assert.Equal(t, 39, res.TotalActiveSeats)

	var row model.Space
	require.NoError(t, db.First(&row, "id = ?", target.ID).Error)
	assert.Equal(t, model.SpaceTypeBathroom, row.SpaceType)
	assert.Nil(t, row.SeatNumber, "seat-only fields are cleared on conversion")
	assert.Empty(t, row.SeatType)
}

func TestReconcileRejectsInvalidPayloadWithoutWrites(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	inputs := inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String()))
	// Introduce an out-of-bounds position.
	inputs[0].PosY = 99

	_, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.Error(t, err)

	// Nothing changed: totals intact, no temporization residue.
	var reloaded model.DiagramModel
	require.NoError(t, db.First(&reloaded, "id = ?", diagram.ID).Error)
	assert.Equal(t, 40, reloaded.TotalSeats)

	var tempRows int64
	require.NoError(t, db.Model(&model.Space{}).Where("seat_number LIKE ?", "~TMP-%").Count(&tempRows).Error)
	assert.EqualValues(t, 0, tempRows)
}

func TestReconcileReusesDeactivatedSeatNumber(t *testing.T) {
	// Inactive rows keep their number but do not reserve it: after seat 40
	// is deactivated its number may be assigned to another active seat.
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	var inputs []layout.SpaceInput
	for _, in := range inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String())) {
		if in.SeatNumber == "40" {
			continue
		}
		inputs = append(inputs, in)
	}
	_, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)

	for i := range inputs {
		if inputs[i].SeatNumber == "39" {
			inputs[i].SeatNumber = "40"
		}
	}
	res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SeatsUpdated)
	assert.Equal(t, 39, res.TotalActiveSeats)

	// Both the inactive original and the renumbered active seat now carry
	// "40"; only one of them is active.
	var holders []model.Space
	require.NoError(t, db.Where("diagram_model_id = ? AND seat_number = ?", diagram.ID, "40").Find(&holders).Error)
	require.Len(t, holders, 2)
	assert.NotEqual(t, holders[0].Active, holders[1].Active)
}

func TestReconcileUnknownAmenityRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	inputs := inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String()))
	inputs[0].AmenityIDs = []string{uuid.NewString()}

	_, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amenity not found")
}

func TestReconcileAppliesAmenitiesAndAngle(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	usb := model.Amenity{Code: "USB", Name: "USB port"}
	require.NoError(t, db.Create(&usb).Error)

	angle := decimal.NewFromFloat(135.5)
	inputs := inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String()))
	for i := range inputs {
		if inputs[i].SeatNumber == "1" {
			inputs[i].SeatType = model.SeatTypeVIP
			inputs[i].AmenityIDs = []string{usb.ID.String()}
			inputs[i].ReclinementAngle = &angle
		}
	}

	res, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SeatsUpdated)

	after := activeSpaces(t, svc, diagram.ID.String())
	seat := findByNumber(after, "1")
	require.NotNil(t, seat)
	assert.Equal(t, model.SeatTypeVIP, seat.SeatType)
	require.Len(t, seat.Amenities, 1)
	assert.Equal(t, "USB", seat.Amenities[0].Code)
	require.NotNil(t, seat.ReclinementAngle)
	assert.True(t, angle.Equal(*seat.ReclinementAngle))

	// Resubmitting the exact same state is a no-op, amenities included.
	res, err = svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputsFromSpaces(after)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.SeatsUpdated)
}

func TestRegenerateResetsCustomization(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	// Customize: make seat 1 VIP.
	inputs := inputsFromSpaces(activeSpaces(t, svc, diagram.ID.String()))
	for i := range inputs {
		if inputs[i].SeatNumber == "1" {
			inputs[i].SeatType = model.SeatTypeVIP
		}
	}
	_, err := svc.BatchUpdateSeatConfiguration(ctx, uuid.NewString(), diagram.ID.String(), UpdateSeatConfigurationRequest{Spaces: inputs})
	require.NoError(t, err)

	// Regenerate: customization is discarded, layout is rebuilt from the
	// template.
	regenerated, generated, err := svc.RegenerateSpaces(ctx, uuid.NewString(), diagram.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, 50, generated)
	assert.Equal(t, 40, regenerated.TotalSeats)

	after := activeSpaces(t, svc, diagram.ID.String())
	require.Len(t, after, 50)
	for _, sp := range after {
		if sp.SpaceType == model.SpaceTypeSeat {
			assert.Equal(t, model.SeatTypeRegular, sp.SeatType)
		}
	}
}

func TestRegenerateWithNewTemplate(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	name := "single-axle 12"
	regenerated, generated, err := svc.RegenerateSpaces(ctx, uuid.NewString(), diagram.ID.String(), &RegenerateRequest{
		Name: &name,
		Floors: []FloorTemplateRequest{
			{FloorNumber: 1, NumRows: 4, SeatsLeft: 2, SeatsRight: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "single-axle 12", regenerated.Name)
	// 4 rows x (2 + aisle + 1) = 16 spaces, 12 seats
	assert.Equal(t, 16, generated)
	assert.Equal(t, 12, regenerated.TotalSeats)

	detail, err := svc.GetDiagram(ctx, diagram.ID.String())
	require.NoError(t, err)
	assert.Len(t, detail.Spaces, 16)
}

func TestDeleteDiagramRemovesEverything(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)
	diagram := standardDiagram(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.DeleteDiagram(ctx, uuid.NewString(), diagram.ID.String()))

	_, err := svc.GetDiagram(ctx, diagram.ID.String())
	require.Error(t, err)

	var spaceRows int64
	require.NoError(t, db.Model(&model.Space{}).Where("diagram_model_id = ?", diagram.ID).Count(&spaceRows).Error)
	assert.EqualValues(t, 0, spaceRows)
}

func TestGetDiagramNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newDiagramService(db)

	_, err := svc.GetDiagram(context.Background(), uuid.NewString())
	require.Error(t, err)
}
