package service

import (
	"context"

	"busfleet/internal/model"

	"gorm.io/gorm"
)

type SeatTypeCount struct {
	SeatType string `json:"seat_type"`
	Count    int64  `json:"count"`
}

type FleetStatsResponse struct {
	TotalDiagrams     int64           `json:"total_diagrams"`
	TotalTransporters int64           `json:"total_transporters"`
	TotalDrivers      int64           `json:"total_drivers"`
	TotalActiveSeats  int64           `json:"total_active_seats"`
	TotalCapacity     int64           `json:"total_capacity"`
	SeatsBySeatType   []SeatTypeCount `json:"seats_by_seat_type"`
}

type StatsService interface {
	GetFleetStats(ctx context.Context) (FleetStatsResponse, error)
}

type statsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) StatsService {
	return &statsService{db: db}
}

// GetFleetStats aggregates fleet-wide counts across diagrams, transporters and seats.
func (s *statsService) GetFleetStats(ctx context.Context) (FleetStatsResponse, error) {
	var response FleetStatsResponse

	if err := s.db.WithContext(ctx).Model(&model.DiagramModel{}).Count(&response.TotalDiagrams).Error; err != nil {
		return response, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Transporter{}).Count(&response.TotalTransporters).Error; err != nil {
		return response, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Driver{}).Count(&response.TotalDrivers).Error; err != nil {
		return response, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Space{}).
		Where("active = ? AND space_type = ?", true, model.SpaceTypeSeat).
		Count(&response.TotalActiveSeats).Error; err != nil {
		return response, err
	}

	var capacity struct {
		Value int64
	}
	if err := s.db.WithContext(ctx).Model(&model.DiagramModel{}).
		Select("COALESCE(SUM(max_capacity), 0) as value").
		Scan(&capacity).Error; err != nil {
		return response, err
	}
	response.TotalCapacity = capacity.Value

	var byType []SeatTypeCount
	if err := s.db.WithContext(ctx).Model(&model.Space{}).
		Select("seat_type, COUNT(*) as count").
		Where("active = ? AND space_type = ?", true, model.SpaceTypeSeat).
		Group("seat_type").
		Order("count DESC").
		Scan(&byType).Error; err != nil {
		return response, err
	}
	response.SeatsBySeatType = byType

	return response, nil
}
