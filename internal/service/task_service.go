package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jengzang/location-bridge-go/internal/models"
	"github.com/jengzang/location-bridge-go/internal/taskmanager"
)

// TaskStatus describes a background task registration
type TaskStatus struct {
	Started bool                          `json:"started"`
	Task    *models.Task                  `json:"task,omitempty"`
	Regions map[string]models.RegionState `json:"regions,omitempty"`
}

// TaskService starts and stops background location and geofencing tasks
type TaskService struct {
	manager *taskmanager.Manager
}

// NewTaskService creates a new task service
func NewTaskService(manager *taskmanager.Manager) *TaskService {
	return &TaskService{manager: manager}
}

// StartLocationUpdates registers a background location consumer for taskName
func (s *TaskService) StartLocationUpdates(ctx context.Context, taskName string, opts models.LocationTaskOptions) error {
	return s.register(ctx, taskName, models.ConsumerLocation, opts)
}

// StopLocationUpdates unregisters the background location consumer
func (s *TaskService) StopLocationUpdates(ctx context.Context, taskName string) error {
	return s.manager.Unregister(ctx, taskName, models.ConsumerLocation)
}

// HasStartedLocationUpdates reports whether the location consumer is running
func (s *TaskService) HasStartedLocationUpdates(ctx context.Context, taskName string) (TaskStatus, error) {
	return s.status(ctx, taskName, models.ConsumerLocation)
}

// StartGeofencing registers a geofencing consumer for taskName
func (s *TaskService) StartGeofencing(ctx context.Context, taskName string, opts models.GeofencingTaskOptions) error {
	return s.register(ctx, taskName, models.ConsumerGeofencing, opts)
}

// StopGeofencing unregisters the geofencing consumer
func (s *TaskService) StopGeofencing(ctx context.Context, taskName string) error {
	return s.manager.Unregister(ctx, taskName, models.ConsumerGeofencing)
}

// HasStartedGeofencing reports whether the geofencing consumer is running,
// with the last known state of each region
func (s *TaskService) HasStartedGeofencing(ctx context.Context, taskName string) (TaskStatus, error) {
	status, err := s.status(ctx, taskName, models.ConsumerGeofencing)
	if err != nil || !status.Started {
		return status, err
	}
	if regions, ok := s.manager.RegionStates(taskName); ok {
		status.Regions = regions
	}
	return status, nil
}

func (s *TaskService) register(ctx context.Context, taskName string, kind models.ConsumerKind, opts any) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode task options: %w", err)
	}
	return s.manager.Register(ctx, taskName, kind, raw)
}

func (s *TaskService) status(ctx context.Context, taskName string, kind models.ConsumerKind) (TaskStatus, error) {
	started, err := s.manager.HasConsumer(ctx, taskName, kind)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("failed to get task status: %w", err)
	}
	if !started {
		return TaskStatus{}, nil
	}
	task, err := s.manager.Task(ctx, taskName, kind)
	if err != nil {
		return TaskStatus{}, fmt.Errorf("failed to get task: %w", err)
	}
	return TaskStatus{Started: true, Task: task}, nil
}
