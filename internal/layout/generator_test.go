package layout

import (
	"strconv"
	"testing"

	"busfleet/internal/model"
	"busfleet/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleFloorDiagram(rows, left, right int) *model.DiagramModel {
	return &model.DiagramModel{
		Name:      "test",
		NumFloors: 1,
		Floors: []model.DiagramFloor{
			{FloorNumber: 1, NumRows: rows, SeatsLeft: left, SeatsRight: right},
		},
	}
}

func TestGenerateSpacesSingleFloor(t *testing.T) {
	diagram := singleFloorDiagram(10, 2, 2)

	spaces, err := GenerateSpaces(diagram)
	require.NoError(t, err)

	// 10 rows x (2 left + aisle + 2 right) = 50 spaces
	require.Len(t, spaces, 50)

	seats := 0
	hallways := 0
	for _, sp := range spaces {
		switch sp.SpaceType {
		case model.SpaceTypeSeat:
			seats++
			require.NotNil(t, sp.SeatNumber)
			assert.Equal(t, model.SeatTypeRegular, sp.SeatType)
		case model.SpaceTypeHallway:
			hallways++
			assert.Equal(t, 2, sp.PosX, "hallway must sit on the aisle column")
			assert.Nil(t, sp.SeatNumber)
		default:
			t.Fatalf("unexpected space type %q", sp.SpaceType)
		}
		assert.True(t, sp.Active)
	}
	assert.Equal(t, 40, seats)
	assert.Equal(t, 10, hallways)
}

func TestGenerateSpacesSequentialNumbering(t *testing.T) {
	diagram := singleFloorDiagram(3, 2, 2)

	spaces, err := GenerateSpaces(diagram)
	require.NoError(t, err)

	want := 0
	for _, sp := range spaces {
		if sp.SpaceType != model.SpaceTypeSeat {
			continue
		}
		want++
		assert.Equal(t, strconv.Itoa(want), *sp.SeatNumber)
	}
	assert.Equal(t, 12, want)
}

func TestGenerateSpacesNumberingSpansFloors(t *testing.T) {
	diagram := &model.DiagramModel{
		NumFloors: 2,
		Floors: []model.DiagramFloor{
			// Deliberately out of order: generation sorts by floor number.
			{FloorNumber: 2, NumRows: 2, SeatsLeft: 1, SeatsRight: 1},
			{FloorNumber: 1, NumRows: 2, SeatsLeft: 2, SeatsRight: 2},
		},
	}

	spaces, err := GenerateSpaces(diagram)
	require.NoError(t, err)

	// Floor 1 holds seats 1..8, floor 2 continues at 9.
	var firstOnSecondFloor *model.Space
	for i := range spaces {
		if spaces[i].FloorNumber == 2 && spaces[i].SpaceType == model.SpaceTypeSeat {
			firstOnSecondFloor = &spaces[i]
			break
		}
	}
	require.NotNil(t, firstOnSecondFloor)
	assert.Equal(t, "9", *firstOnSecondFloor.SeatNumber)
}

func TestGenerateSpacesDeterministic(t *testing.T) {
	diagram := singleFloorDiagram(5, 2, 1)

	first, err := GenerateSpaces(diagram)
	require.NoError(t, err)
	second, err := GenerateSpaces(diagram)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].PositionKey(), second[i].PositionKey())
		assert.Equal(t, first[i].SpaceType, second[i].SpaceType)
		assert.Equal(t, first[i].SeatNumberValue(), second[i].SeatNumberValue())
	}
}

func TestValidateTemplateRejections(t *testing.T) {
	tests := []struct {
		name    string
		diagram *model.DiagramModel
	}{
		{"zero floors", &model.DiagramModel{NumFloors: 0}},
		{"missing floor template", &model.DiagramModel{NumFloors: 2, Floors: []model.DiagramFloor{
			{FloorNumber: 1, NumRows: 2, SeatsLeft: 1, SeatsRight: 1},
		}}},
		{"floor number out of range", &model.DiagramModel{NumFloors: 1, Floors: []model.DiagramFloor{
			{FloorNumber: 3, NumRows: 2, SeatsLeft: 1, SeatsRight: 1},
		}}},
		{"duplicate floor template", &model.DiagramModel{NumFloors: 1, Floors: []model.DiagramFloor{
			{FloorNumber: 1, NumRows: 2, SeatsLeft: 1, SeatsRight: 1},
			{FloorNumber: 1, NumRows: 3, SeatsLeft: 1, SeatsRight: 1},
		}}},
		{"zero rows", singleFloorDiagram(0, 2, 2)},
		{"zero seats left", singleFloorDiagram(2, 0, 2)},
		{"zero seats right", singleFloorDiagram(2, 2, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.diagram)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))

			_, err = GenerateSpaces(tt.diagram)
			require.Error(t, err)
		})
	}
}
