package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/repository"
	"github.com/jengzang/location-bridge-go/internal/simulator"
)

// ErrSensorsNotRunning is returned when a sample is injected while no heading watch runs
var ErrSensorsNotRunning = errors.New("no sensor listener is running")

// FixesResponse is a page of recorded fixes
type FixesResponse struct {
	Data  []models.TrackPoint `json:"data"`
	Total int64               `json:"total"`
}

// SimulatorService drives the simulated device
type SimulatorService struct {
	device    *simulator.Device
	trackRepo *repository.TrackRepository
}

// NewSimulatorService creates a new simulator service
func NewSimulatorService(device *simulator.Device, trackRepo *repository.TrackRepository) *SimulatorService {
	return &SimulatorService{
		device:    device,
		trackRepo: trackRepo,
	}
}

// InjectFix records a fix and delivers it to matching subscriptions
func (s *SimulatorService) InjectFix(ctx context.Context, loc models.Location) error {
	if loc.Coords.Latitude < -90 || loc.Coords.Latitude > 90 ||
		loc.Coords.Longitude < -180 || loc.Coords.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if err := s.device.InjectFix(ctx, loc); err != nil {
		return fmt.Errorf("failed to inject fix: %w", err)
	}
	return nil
}

// GetFixes lists recorded fixes
func (s *SimulatorService) GetFixes(ctx context.Context, filter models.TrackPointFilter) (*FixesResponse, error) {
	points, err := s.trackRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get fixes: %w", err)
	}
	total, err := s.trackRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count fixes: %w", err)
	}
	return &FixesResponse{Data: points, Total: total}, nil
}

// InjectSensors forwards a sensor sample to the running heading watch
func (s *SimulatorService) InjectSensors(sample simulator.SensorSample) error {
	if !s.device.InjectSensors(sample) {
		return ErrSensorsNotRunning
	}
	return nil
}

// SetAvailability turns the simulated location services on or off
func (s *SimulatorService) SetAvailability(available bool) models.ProviderStatus {
	s.device.SetAvailability(available)
	return s.device.Status()
}
