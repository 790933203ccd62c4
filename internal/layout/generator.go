// Package layout holds the pure seat-diagram math: generating the full space
// set from a floor template and validating edited configurations against it.
// Nothing in here touches storage.
package layout

import (
	"sort"
	"strconv"

	"busfleet/internal/model"
	"busfleet/pkg/apperror"
)

// AisleColumn returns the x coordinate of the hallway column for a floor
// template. Columns are 0-based: seats occupy [0, seatsLeft) on the left and
// (aisle, seatsLeft+seatsRight] on the right.
func AisleColumn(f *model.DiagramFloor) int {
	return f.SeatsLeft
}

// MaxColumn returns the largest valid x coordinate for a floor template.
func MaxColumn(f *model.DiagramFloor) int {
	return f.SeatsLeft + f.SeatsRight
}

// GenerateSpaces deterministically enumerates every space of the diagram:
// floors ascending, rows ascending, columns left to right. Seats are numbered
// sequentially "1".."N" across the whole diagram; the aisle column of every
// row becomes a HALLWAY space. The result is not persisted.
func GenerateSpaces(diagram *model.DiagramModel) ([]model.Space, error) {
	if err := ValidateTemplate(diagram); err != nil {
		return nil, err
	}

	floors := make([]model.DiagramFloor, len(diagram.Floors))
	copy(floors, diagram.Floors)
	sort.Slice(floors, func(i, j int) bool { return floors[i].FloorNumber < floors[j].FloorNumber })

	var spaces []model.Space
	seatNum := 0
	for i := range floors {
		f := &floors[i]
		for y := 1; y <= f.NumRows; y++ {
			for x := 0; x <= MaxColumn(f); x++ {
				sp := model.Space{
					DiagramModelID: diagram.ID,
					FloorNumber:    f.FloorNumber,
					PosX:           x,
					PosY:           y,
					Active:         true,
				}
				if x == AisleColumn(f) {
					sp.SpaceType = model.SpaceTypeHallway
				} else {
					seatNum++
					number := strconv.Itoa(seatNum)
					sp.SpaceType = model.SpaceTypeSeat
					sp.SeatNumber = &number
					sp.SeatType = model.SeatTypeRegular
				}
				spaces = append(spaces, sp)
			}
		}
	}
	return spaces, nil
}

// ValidateTemplate checks that the diagram's floor template is complete and
// every dimension is positive.
func ValidateTemplate(diagram *model.DiagramModel) error {
	if diagram.NumFloors <= 0 {
		return apperror.Validationf("num_floors must be positive, got %d", diagram.NumFloors)
	}
	seen := make(map[int]bool, len(diagram.Floors))
	for i := range diagram.Floors {
		f := &diagram.Floors[i]
		if f.FloorNumber <= 0 || f.FloorNumber > diagram.NumFloors {
			return apperror.Validationf("floor_number %d outside range 1..%d", f.FloorNumber, diagram.NumFloors)
		}
		if seen[f.FloorNumber] {
			return apperror.Validationf("duplicate template for floor %d", f.FloorNumber)
		}
		seen[f.FloorNumber] = true
		if f.NumRows <= 0 {
			return apperror.Validationf("floor %d: num_rows must be positive, got %d", f.FloorNumber, f.NumRows)
		}
		if f.SeatsLeft <= 0 {
			return apperror.Validationf("floor %d: seats_left must be positive, got %d", f.FloorNumber, f.SeatsLeft)
		}
		if f.SeatsRight <= 0 {
			return apperror.Validationf("floor %d: seats_right must be positive, got %d", f.FloorNumber, f.SeatsRight)
		}
	}
	for n := 1; n <= diagram.NumFloors; n++ {
		if !seen[n] {
			return apperror.Validationf("missing template for floor %d", n)
		}
	}
	return nil
}
