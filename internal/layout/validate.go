package layout

import (
	"fmt"

	"busfleet/internal/model"
	"busfleet/pkg/apperror"

	"github.com/shopspring/decimal"
)

// SpaceInput is one desired space in an edited seat configuration. Position
// (floor_number, pos_x, pos_y) matches it to an existing row; everything else
// is the desired final state.
type SpaceInput struct {
	SpaceType        string                 `json:"space_type" binding:"required,oneof=SEAT STAIRS HALLWAY BATHROOM EMPTY"`
	SeatNumber       string                 `json:"seat_number"`
	SeatType         string                 `json:"seat_type"`
	FloorNumber      int                    `json:"floor_number" binding:"required,min=1"`
	PosX             int                    `json:"pos_x" binding:"min=0"`
	PosY             int                    `json:"pos_y" binding:"required,min=1"`
	AmenityIDs       []string               `json:"amenity_ids"`
	ReclinementAngle *decimal.Decimal       `json:"reclinement_angle"`
	Meta             map[string]interface{} `json:"meta"`
	Active           *bool                  `json:"active"`
}

// PositionKey mirrors model.Space.PositionKey for incoming spaces.
func (in *SpaceInput) PositionKey() string {
	return fmt.Sprintf("%d:%d:%d", in.FloorNumber, in.PosX, in.PosY)
}

// IsActive treats an omitted active flag as true.
func (in *SpaceInput) IsActive() bool {
	return in.Active == nil || *in.Active
}

// ValidateConfiguration checks an edited space list against the diagram
// template before any mutation is attempted, so invalid payloads fail with no
// partial writes. Rejected payloads:
//   - floor_number beyond the diagram's floors, or without a template;
//   - positions outside the floor's row/column bounds;
//   - SEAT spaces missing seat_number or seat_type;
//   - duplicate (floor, x, y) positions in the payload;
//   - duplicate seat numbers among incoming active seats.
func ValidateConfiguration(spaces []SpaceInput, diagram *model.DiagramModel) error {
	if len(spaces) == 0 {
		return apperror.Validationf("seat configuration must contain at least one space")
	}

	positions := make(map[string]bool, len(spaces))
	seatNumbers := make(map[string]bool)
	for i := range spaces {
		in := &spaces[i]
		if in.FloorNumber > diagram.NumFloors {
			return apperror.Validationf("space at (%d,%d,%d): floor %d exceeds diagram's %d floor(s)",
				in.FloorNumber, in.PosX, in.PosY, in.FloorNumber, diagram.NumFloors)
		}
		tpl := diagram.FloorTemplate(in.FloorNumber)
		if tpl == nil {
			return apperror.Validationf("space at (%d,%d,%d): no template for floor %d",
				in.FloorNumber, in.PosX, in.PosY, in.FloorNumber)
		}
		if in.PosY < 1 || in.PosY > tpl.NumRows {
			return apperror.Validationf("space at (%d,%d,%d): row %d outside 1..%d",
				in.FloorNumber, in.PosX, in.PosY, in.PosY, tpl.NumRows)
		}
		if in.PosX < 0 || in.PosX > MaxColumn(tpl) {
			return apperror.Validationf("space at (%d,%d,%d): column %d outside 0..%d",
				in.FloorNumber, in.PosX, in.PosY, in.PosX, MaxColumn(tpl))
		}
		if in.SpaceType == model.SpaceTypeSeat {
			if in.SeatNumber == "" {
				return apperror.Validationf("seat at (%d,%d,%d) is missing seat_number",
					in.FloorNumber, in.PosX, in.PosY)
			}
			if in.SeatType == "" {
				return apperror.Validationf("seat at (%d,%d,%d) is missing seat_type",
					in.FloorNumber, in.PosX, in.PosY)
			}
			if in.IsActive() {
				if seatNumbers[in.SeatNumber] {
					return apperror.Validationf("duplicate seat_number %q in payload", in.SeatNumber)
				}
				seatNumbers[in.SeatNumber] = true
			}
		}
		key := in.PositionKey()
		if positions[key] {
			return apperror.Validationf("duplicate position (%d,%d,%d) in payload",
				in.FloorNumber, in.PosX, in.PosY)
		}
		positions[key] = true
	}
	return nil
}
