package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"busfleet/internal/events"
	"busfleet/internal/layout"
	"busfleet/internal/model"
	"busfleet/internal/repository"
	ws "busfleet/internal/websocket"
	"busfleet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type FloorTemplateRequest struct {
	FloorNumber int `json:"floor_number" binding:"required,min=1"`
	NumRows     int `json:"num_rows" binding:"required,min=1"`
	SeatsLeft   int `json:"seats_left" binding:"required,min=1"`
	SeatsRight  int `json:"seats_right" binding:"required,min=1"`
}

type CreateDiagramRequest struct {
	Name          string                 `json:"name" binding:"required"`
	Description   string                 `json:"description"`
	TransporterID string                 `json:"transporter_id"`
	NumFloors     int                    `json:"num_floors" binding:"required,min=1"`
	MaxCapacity   int                    `json:"max_capacity"`
	Floors        []FloorTemplateRequest `json:"floors" binding:"required,min=1,dive"`
}

// RegenerateRequest optionally updates diagram metadata and/or the floor
// template before the space set is rebuilt. All fields are optional.
type RegenerateRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	NumFloors   *int                   `json:"num_floors"`
	MaxCapacity *int                   `json:"max_capacity"`
	Floors      []FloorTemplateRequest `json:"floors"`
}

type UpdateSeatConfigurationRequest struct {
	Spaces []layout.SpaceInput `json:"spaces" binding:"required,min=1,dive"`
}

// ReconcileResult reports what a reconciliation changed.
type ReconcileResult struct {
	SeatsCreated     int `json:"seats_created"`
	SeatsUpdated     int `json:"seats_updated"`
	SeatsDeactivated int `json:"seats_deactivated"`
	TotalActiveSeats int `json:"total_active_seats"`
}

type DiagramDetail struct {
	Diagram *model.DiagramModel `json:"diagram"`
	Spaces  []model.Space       `json:"spaces"`
}

// Websocket payload
type DiagramEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

type DiagramService interface {
	CreateDiagramModel(ctx context.Context, userID string, req CreateDiagramRequest) (*model.DiagramModel, int, error)
	GetDiagram(ctx context.Context, id string) (*DiagramDetail, error)
	ListDiagrams(ctx context.Context, page, limit int, search string) ([]model.DiagramModel, int64, error)
	RegenerateSpaces(ctx context.Context, userID, id string, req *RegenerateRequest) (*model.DiagramModel, int, error)
	BatchUpdateSeatConfiguration(ctx context.Context, userID, id string, req UpdateSeatConfigurationRequest) (*ReconcileResult, error)
	DeleteDiagram(ctx context.Context, userID, id string) error
}

type diagramService struct {
	diagramRepo repository.DiagramRepository
	spaceRepo   repository.SpaceRepository
	amenityRepo repository.AmenityRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
	publisher   events.Publisher
}

func NewDiagramService(
	diagramRepo repository.DiagramRepository,
	spaceRepo repository.SpaceRepository,
	amenityRepo repository.AmenityRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	publisher events.Publisher,
) DiagramService {
	return &diagramService{
		diagramRepo: diagramRepo,
		spaceRepo:   spaceRepo,
		amenityRepo: amenityRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
		publisher:   publisher,
	}
}

// tempSeatNumber derives the temporization placeholder from the row's own id.
// Row ids are globally unique, so placeholders cannot collide with each other
// or with any concurrent reconciliation of another diagram, and the prefix
// keeps them from ever parsing as a business seat number.
func tempSeatNumber(id uuid.UUID) string {
	return "~TMP-" + id.String()
}

func (s *diagramService) CreateDiagramModel(ctx context.Context, userID string, req CreateDiagramRequest) (*model.DiagramModel, int, error) {
	diagram := &model.DiagramModel{
		Name:        req.Name,
		Description: req.Description,
		NumFloors:   req.NumFloors,
		MaxCapacity: req.MaxCapacity,
		Floors:      floorsFromRequest(req.Floors),
	}
	if req.TransporterID != "" {
		tid, err := uuid.Parse(req.TransporterID)
		if err != nil {
			return nil, 0, apperror.Validationf("invalid transporter_id: %s", req.TransporterID)
		}
		diagram.TransporterID = &tid
	}
	if err := layout.ValidateTemplate(diagram); err != nil {
		return nil, 0, err
	}

	var created int
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.diagramRepo.Create(txCtx, diagram); err != nil {
			return fmt.Errorf("failed to create diagram model: %w", err)
		}

		n, err := s.createSpacesFromDiagramModel(txCtx, diagram)
		if err != nil {
			return err
		}
		created = n

		details, _ := json.Marshal(map[string]interface{}{
			"num_floors":  diagram.NumFloors,
			"total_seats": diagram.TotalSeats,
			"spaces":      created,
		})
		return s.logAudit(txCtx, userID, model.ActionCreateDiagram, diagram.ID.String(), diagram.Name, string(details))
	})
	if err != nil {
		return nil, 0, err
	}

	return diagram, created, nil
}

// createSpacesFromDiagramModel seeds a diagram with its generated layout using
// the caller's transaction context, and stamps the derived seat count onto the
// diagram. Returns the number of spaces created.
func (s *diagramService) createSpacesFromDiagramModel(txCtx context.Context, diagram *model.DiagramModel) (int, error) {
	spaces, err := layout.GenerateSpaces(diagram)
	if err != nil {
		return 0, err
	}
	if err := s.spaceRepo.CreateBatch(txCtx, spaces); err != nil {
		return 0, fmt.Errorf("failed to insert generated spaces: %w", err)
	}

	total, err := s.spaceRepo.CountActiveSeats(txCtx, diagram.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count seats: %w", err)
	}
	if err := s.diagramRepo.UpdateTotalSeats(txCtx, diagram.ID, int(total)); err != nil {
		return 0, fmt.Errorf("failed to update total seats: %w", err)
	}
	diagram.TotalSeats = int(total)

	return len(spaces), nil
}

func (s *diagramService) GetDiagram(ctx context.Context, id string) (*DiagramDetail, error) {
	diagramID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid diagram id: %s", id)
	}

	diagram, err := s.findDiagram(ctx, diagramID)
	if err != nil {
		return nil, err
	}

	spaces, err := s.spaceRepo.FindByDiagram(ctx, diagramID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load spaces: %w", err)
	}

	return &DiagramDetail{Diagram: diagram, Spaces: spaces}, nil
}

func (s *diagramService) ListDiagrams(ctx context.Context, page, limit int, search string) ([]model.DiagramModel, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.diagramRepo.List(ctx, page, limit, search)
}

// RegenerateSpaces is the full reset path: it optionally updates the diagram
// metadata/template, hard-deletes all existing spaces and rebuilds them from
// the template. Per-seat customization (amenities, reclinement angle, seat
// type overrides) is intentionally discarded: regeneration means "reset to
// factory template". The incremental path preserves customization instead.
func (s *diagramService) RegenerateSpaces(ctx context.Context, userID, id string, req *RegenerateRequest) (*model.DiagramModel, int, error) {
	diagramID, err := uuid.Parse(id)
	if err != nil {
		return nil, 0, apperror.Validationf("invalid diagram id: %s", id)
	}

	diagram, err := s.findDiagram(ctx, diagramID)
	if err != nil {
		return nil, 0, err
	}

	replaceFloors := false
	if req != nil {
		if req.Name != nil {
			diagram.Name = *req.Name
		}
		if req.Description != nil {
			diagram.Description = *req.Description
		}
		if req.NumFloors != nil {
			diagram.NumFloors = *req.NumFloors
		}
		if req.MaxCapacity != nil {
			diagram.MaxCapacity = *req.MaxCapacity
		}
		if len(req.Floors) > 0 {
			diagram.Floors = floorsFromRequest(req.Floors)
			replaceFloors = true
		}
	}
	if err := layout.ValidateTemplate(diagram); err != nil {
		return nil, 0, err
	}

	var generated int
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.diagramRepo.Save(txCtx, diagram); err != nil {
			return fmt.Errorf("failed to update diagram: %w", err)
		}
		if replaceFloors {
			if err := s.diagramRepo.ReplaceFloors(txCtx, diagram.ID, diagram.Floors); err != nil {
				return fmt.Errorf("failed to replace floor template: %w", err)
			}
		}
		if err := s.spaceRepo.DeleteByDiagram(txCtx, diagram.ID); err != nil {
			return fmt.Errorf("failed to clear existing spaces: %w", err)
		}

		n, err := s.createSpacesFromDiagramModel(txCtx, diagram)
		if err != nil {
			return err
		}
		generated = n

		details, _ := json.Marshal(map[string]interface{}{
			"spaces_generated": generated,
			"total_seats":      diagram.TotalSeats,
		})
		return s.logAudit(txCtx, userID, model.ActionRegenerateSpaces, diagram.ID.String(), diagram.Name, string(details))
	})
	if err != nil {
		return nil, 0, err
	}

	s.notifyRegenerated(ctx, diagram, generated)

	return diagram, generated, nil
}

// BatchUpdateSeatConfiguration reconciles an edited space list against the
// persisted set inside one transaction.
//
// Seat numbers must stay unique among active seats whenever the constraint is
// checked, yet an edit may swap or shift numbers between rows. Rather than
// ordering individual updates around the constraint, every existing seat is
// first moved to a placeholder namespace (temporization), then the final
// state is applied: matched rows are updated, unmatched incoming spaces are
// created, and originally-active rows missing from the payload are
// deactivated. The diagram's total_seats is recomputed from a count query
// before commit.
func (s *diagramService) BatchUpdateSeatConfiguration(ctx context.Context, userID, id string, req UpdateSeatConfigurationRequest) (*ReconcileResult, error) {
	diagramID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid diagram id: %s", id)
	}

	diagram, err := s.findDiagram(ctx, diagramID)
	if err != nil {
		return nil, err
	}
	if err := layout.ValidateConfiguration(req.Spaces, diagram); err != nil {
		return nil, err
	}

	var res ReconcileResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		amenitiesByID, err := s.resolveAmenities(txCtx, req.Spaces)
		if err != nil {
			return err
		}

		// Phase 0: index the current active set by position. Position is the
		// stable identity across edits; seat numbers are mutable business data.
		existing, err := s.spaceRepo.FindByDiagram(txCtx, diagramID, true)
		if err != nil {
			return fmt.Errorf("failed to load existing spaces: %w", err)
		}
		origByPos := make(map[string]*model.Space, len(existing))
		for i := range existing {
			origByPos[existing[i].PositionKey()] = &existing[i]
		}

		// Phase 1: move every active seat to the placeholder namespace. All
		// seats are temporized, not just ones that look changed; incoming
		// numbering may not align with the current one in ways that are only
		// safe to resolve once the namespace is cleared.
		for i := range existing {
			if existing[i].SpaceType != model.SpaceTypeSeat {
				continue
			}
			if err := s.spaceRepo.UpdateSeatNumber(txCtx, existing[i].ID, tempSeatNumber(existing[i].ID)); err != nil {
				return fmt.Errorf("failed to temporize seat %s: %w", existing[i].ID, err)
			}
		}

		// Re-read after temporization: the rows behind the original map were
		// just mutated.
		refreshed, err := s.spaceRepo.FindByDiagram(txCtx, diagramID, true)
		if err != nil {
			return fmt.Errorf("failed to reload spaces: %w", err)
		}
		curByPos := make(map[string]*model.Space, len(refreshed))
		for i := range refreshed {
			curByPos[refreshed[i].PositionKey()] = &refreshed[i]
		}

		// Phase 2: apply the final state.
		incomingKeys := make(map[string]bool, len(req.Spaces))
		var toCreate []model.Space
		for i := range req.Spaces {
			in := &req.Spaces[i]
			key := in.PositionKey()
			incomingKeys[key] = true

			cur, ok := curByPos[key]
			if !ok {
				toCreate = append(toCreate, buildSpace(diagramID, in, amenitiesByID))
				continue
			}

			// Material change is judged against the pre-temporization
			// snapshot; the placeholder number itself is not a change.
			orig := origByPos[key]
			changed := spaceChanged(orig, in, amenitiesByID)
			touchesSeat := orig.SpaceType == model.SpaceTypeSeat || in.SpaceType == model.SpaceTypeSeat
			if changed || touchesSeat {
				applyInput(cur, in, amenitiesByID)
				if err := s.spaceRepo.Update(txCtx, cur); err != nil {
					return fmt.Errorf("failed to update space %s: %w", cur.ID, err)
				}
			}
			if changed {
				res.SeatsUpdated++
			}
		}

		if len(toCreate) > 0 {
			if err := s.spaceRepo.CreateBatch(txCtx, toCreate); err != nil {
				return fmt.Errorf("failed to create spaces: %w", err)
			}
			res.SeatsCreated = len(toCreate)
		}

		// Deactivate originally-active spaces the payload no longer contains.
		// Judged against the original set: temporization does not move rows.
		for key, orig := range origByPos {
			if incomingKeys[key] {
				continue
			}
			if err := s.spaceRepo.Deactivate(txCtx, orig.ID, orig.SeatNumber); err != nil {
				return fmt.Errorf("failed to deactivate space %s: %w", orig.ID, err)
			}
			res.SeatsDeactivated++
		}

		// Recompute the derived aggregate inside the same transaction.
		total, err := s.spaceRepo.CountActiveSeats(txCtx, diagramID)
		if err != nil {
			return fmt.Errorf("failed to count active seats: %w", err)
		}
		if err := s.diagramRepo.UpdateTotalSeats(txCtx, diagramID, int(total)); err != nil {
			return fmt.Errorf("failed to update total seats: %w", err)
		}
		res.TotalActiveSeats = int(total)

		details, _ := json.Marshal(res)
		return s.logAudit(txCtx, userID, model.ActionUpdateSeatConfig, diagramID.String(), diagram.Name, string(details))
	})
	if err != nil {
		return nil, err
	}

	s.notifyReconciled(ctx, diagramID, &res)

	return &res, nil
}

func (s *diagramService) DeleteDiagram(ctx context.Context, userID, id string) error {
	diagramID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid diagram id: %s", id)
	}

	diagram, err := s.findDiagram(ctx, diagramID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.spaceRepo.DeleteByDiagram(txCtx, diagramID); err != nil {
			return fmt.Errorf("failed to delete spaces: %w", err)
		}
		if err := s.diagramRepo.Delete(txCtx, diagramID); err != nil {
			return fmt.Errorf("failed to delete diagram: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteDiagram, diagramID.String(), diagram.Name, `{"deleted": true}`)
	})
}

// --- helpers ---

func (s *diagramService) findDiagram(ctx context.Context, id uuid.UUID) (*model.DiagramModel, error) {
	diagram, err := s.diagramRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("diagram model", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return diagram, nil
}

// resolveAmenities loads every amenity referenced by the payload once, and
// rejects unknown ids before any mutation.
func (s *diagramService) resolveAmenities(ctx context.Context, spaces []layout.SpaceInput) (map[uuid.UUID]model.Amenity, error) {
	idSet := make(map[uuid.UUID]bool)
	for i := range spaces {
		for _, raw := range spaces[i].AmenityIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperror.Validationf("invalid amenity id: %s", raw)
			}
			idSet[id] = true
		}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	amenities, err := s.amenityRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load amenities: %w", err)
	}
	byID := make(map[uuid.UUID]model.Amenity, len(amenities))
	for _, a := range amenities {
		byID[a.ID] = a
	}
	for id := range idSet {
		if _, ok := byID[id]; !ok {
			return nil, apperror.Validationf("amenity not found: %s", id)
		}
	}
	return byID, nil
}

func (s *diagramService) logAudit(txCtx context.Context, userID, action, entityID, entityName, details string) error {
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

func floorsFromRequest(reqs []FloorTemplateRequest) []model.DiagramFloor {
	floors := make([]model.DiagramFloor, 0, len(reqs))
	for _, f := range reqs {
		floors = append(floors, model.DiagramFloor{
			FloorNumber: f.FloorNumber,
			NumRows:     f.NumRows,
			SeatsLeft:   f.SeatsLeft,
			SeatsRight:  f.SeatsRight,
		})
	}
	return floors
}

func buildSpace(diagramID uuid.UUID, in *layout.SpaceInput, amenitiesByID map[uuid.UUID]model.Amenity) model.Space {
	sp := model.Space{
		DiagramModelID: diagramID,
		FloorNumber:    in.FloorNumber,
		PosX:           in.PosX,
		PosY:           in.PosY,
	}
	applyInput(&sp, in, amenitiesByID)
	return sp
}

// applyInput writes the incoming desired state onto a space row. Which fields
// are copied depends on the incoming type: converting away from SEAT clears
// all seat-only attributes.
func applyInput(sp *model.Space, in *layout.SpaceInput, amenitiesByID map[uuid.UUID]model.Amenity) {
	sp.SpaceType = in.SpaceType
	sp.Active = in.IsActive()
	if in.SpaceType == model.SpaceTypeSeat {
		number := in.SeatNumber
		sp.SeatNumber = &number
		sp.SeatType = in.SeatType
		sp.ReclinementAngle = in.ReclinementAngle
		sp.Amenities = amenitiesForInput(in, amenitiesByID)
	} else {
		sp.SeatNumber = nil
		sp.SeatType = ""
		sp.ReclinementAngle = nil
		sp.Amenities = nil
	}
	if in.Meta != nil {
		raw, _ := json.Marshal(in.Meta)
		sp.Meta = raw
	}
}

func amenitiesForInput(in *layout.SpaceInput, byID map[uuid.UUID]model.Amenity) []model.Amenity {
	if len(in.AmenityIDs) == 0 {
		return nil
	}
	out := make([]model.Amenity, 0, len(in.AmenityIDs))
	for _, raw := range in.AmenityIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue // validated earlier
		}
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// spaceChanged compares the incoming desired state against the
// pre-temporization snapshot. The comparison dispatches on the incoming space
// type: seat-only attributes matter only when the target is a SEAT.
func spaceChanged(orig *model.Space, in *layout.SpaceInput, amenitiesByID map[uuid.UUID]model.Amenity) bool {
	if orig.SpaceType != in.SpaceType {
		return true
	}
	if orig.Active != in.IsActive() {
		return true
	}
	if in.Meta != nil {
		raw, _ := json.Marshal(in.Meta)
		if !bytes.Equal(raw, orig.Meta) {
			return true
		}
	}
	if in.SpaceType != model.SpaceTypeSeat {
		return false
	}
	if orig.SeatNumberValue() != in.SeatNumber {
		return true
	}
	if orig.SeatType != in.SeatType {
		return true
	}
	if !decimalPtrEqual(orig.ReclinementAngle, in.ReclinementAngle) {
		return true
	}
	return !amenitySetEqual(orig.Amenities, amenitiesForInput(in, amenitiesByID))
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func amenitySetEqual(a, b []model.Amenity) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]bool, len(a))
	for _, x := range a {
		set[x.ID] = true
	}
	for _, x := range b {
		if !set[x.ID] {
			return false
		}
	}
	return true
}

// --- post-commit notifications (best effort) ---

func (s *diagramService) notifyReconciled(ctx context.Context, diagramID uuid.UUID, res *ReconcileResult) {
	if s.hub != nil {
		payload, _ := json.Marshal(DiagramEvent{
			Event: "diagram.configuration.updated",
			Data: map[string]interface{}{
				"diagram_model_id":   diagramID.String(),
				"seats_created":      res.SeatsCreated,
				"seats_updated":      res.SeatsUpdated,
				"seats_deactivated":  res.SeatsDeactivated,
				"total_active_seats": res.TotalActiveSeats,
			},
		})
		s.hub.Broadcast <- payload
	}
	if s.publisher != nil {
		_ = s.publisher.PublishSeatConfigurationUpdated(ctx, events.SeatConfigurationUpdated{
			DiagramModelID:   diagramID.String(),
			SeatsCreated:     res.SeatsCreated,
			SeatsUpdated:     res.SeatsUpdated,
			SeatsDeactivated: res.SeatsDeactivated,
			TotalActiveSeats: res.TotalActiveSeats,
			OccurredAt:       time.Now().UTC(),
		})
	}
}

func (s *diagramService) notifyRegenerated(ctx context.Context, diagram *model.DiagramModel, generated int) {
	if s.hub != nil {
		payload, _ := json.Marshal(DiagramEvent{
			Event: "diagram.regenerated",
			Data: map[string]interface{}{
				"diagram_model_id": diagram.ID.String(),
				"spaces_generated": generated,
				"total_seats":      diagram.TotalSeats,
			},
		})
		s.hub.Broadcast <- payload
	}
	if s.publisher != nil {
		_ = s.publisher.PublishDiagramRegenerated(ctx, events.DiagramRegenerated{
			DiagramModelID:  diagram.ID.String(),
			SpacesGenerated: generated,
			TotalSeats:      diagram.TotalSeats,
			OccurredAt:      time.Now().UTC(),
		})
	}
}
