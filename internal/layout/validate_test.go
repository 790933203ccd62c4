package layout

import (
	"testing"

	"busfleet/internal/model"
	"busfleet/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatInput(floor, x, y int, number string) SpaceInput {
	return SpaceInput{
		SpaceType:   model.SpaceTypeSeat,
		SeatNumber:  number,
		SeatType:    model.SeatTypeRegular,
		FloorNumber: floor,
		PosX:        x,
		PosY:        y,
	}
}

func TestValidateConfigurationAccepts(t *testing.T) {
	diagram := singleFloorDiagram(3, 2, 2)

	spaces := []SpaceInput{
		seatInput(1, 0, 1, "1"),
		seatInput(1, 1, 1, "2"),
		{SpaceType: model.SpaceTypeHallway, FloorNumber: 1, PosX: 2, PosY: 1},
		seatInput(1, 3, 1, "3"),
		{SpaceType: model.SpaceTypeBathroom, FloorNumber: 1, PosX: 4, PosY: 1},
	}

	require.NoError(t, ValidateConfiguration(spaces, diagram))
}

func TestValidateConfigurationRejections(t *testing.T) {
	diagram := singleFloorDiagram(3, 2, 2)
	inactive := false

	tests := []struct {
		name   string
		spaces []SpaceInput
	}{
		{"empty payload", nil},
		{"floor beyond diagram", []SpaceInput{seatInput(2, 0, 1, "1")}},
		{"row out of bounds", []SpaceInput{seatInput(1, 0, 4, "1")}},
		{"column out of bounds", []SpaceInput{seatInput(1, 5, 1, "1")}},
		{"seat without number", []SpaceInput{{
			SpaceType: model.SpaceTypeSeat, SeatType: model.SeatTypeRegular,
			FloorNumber: 1, PosX: 0, PosY: 1,
		}}},
		{"seat without type", []SpaceInput{{
			SpaceType: model.SpaceTypeSeat, SeatNumber: "1",
			FloorNumber: 1, PosX: 0, PosY: 1,
		}}},
		{"duplicate position", []SpaceInput{
			seatInput(1, 0, 1, "1"),
			seatInput(1, 0, 1, "2"),
		}},
		{"duplicate active seat number", []SpaceInput{
			seatInput(1, 0, 1, "7"),
			seatInput(1, 1, 1, "7"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfiguration(tt.spaces, diagram)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}

	t.Run("inactive seats may repeat numbers", func(t *testing.T) {
		a := seatInput(1, 0, 1, "7")
		a.Active = &inactive
		b := seatInput(1, 1, 1, "7")
		b.Active = &inactive
		c := seatInput(1, 3, 1, "7") // the only active holder of "7"
		require.NoError(t, ValidateConfiguration([]SpaceInput{a, b, c}, diagram))
	})
}
