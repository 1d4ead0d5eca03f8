package models

import (
	"encoding/json"
	"time"
)

// ConsumerKind identifies which background consumer a task is bound to
type ConsumerKind string

// ConsumerKind constants
const (
	ConsumerLocation   ConsumerKind = "location"
	ConsumerGeofencing ConsumerKind = "geofencing"
)

// Valid reports whether the kind is one the task manager knows how to run
func (k ConsumerKind) Valid() bool {
	return k == ConsumerLocation || k == ConsumerGeofencing
}

// Task represents a registered background task
type Task struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Consumer  ConsumerKind    `json:"consumer" db:"consumer"`
	Options   json.RawMessage `json:"options" db:"options"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// LocationTaskOptions configures a background location consumer
type LocationTaskOptions struct {
	LocationOptions
	BatchSize int `json:"batchSize,omitempty"` // Fixes delivered per execution, default 1
}

// GeofencingTaskOptions configures a background geofencing consumer
type GeofencingTaskOptions struct {
	Regions []GeofenceRegion `json:"regions"`
}

// GeofenceRegion is a circular region monitored by a geofencing task
type GeofenceRegion struct {
	Identifier    string  `json:"identifier"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Radius        float64 `json:"radius"` // Meters
	NotifyOnEnter *bool   `json:"notifyOnEnter,omitempty"`
	NotifyOnExit  *bool   `json:"notifyOnExit,omitempty"`
}

// EntersNotified defaults to true when unset
func (r GeofenceRegion) EntersNotified() bool {
	return r.NotifyOnEnter == nil || *r.NotifyOnEnter
}

// ExitsNotified defaults to true when unset
func (r GeofenceRegion) ExitsNotified() bool {
	return r.NotifyOnExit == nil || *r.NotifyOnExit
}

// RegionState is the last known relation of the device to a region
type RegionState int

// RegionState constants
const (
	RegionStateUnknown RegionState = iota
	RegionStateInside
	RegionStateOutside
)

// GeofencingEventType tells whether a region was entered or left
type GeofencingEventType int

// GeofencingEventType constants
const (
	GeofencingEventEnter GeofencingEventType = iota + 1
	GeofencingEventExit
)

// GeofencingEvent is the payload delivered to a geofencing task
type GeofencingEvent struct {
	EventType GeofencingEventType `json:"eventType"`
	Region    GeofenceRegion      `json:"region"`
	State     RegionState         `json:"state"`
}

// TaskExecution is emitted whenever a background consumer hands data to its task
type TaskExecution struct {
	TaskName string       `json:"taskName"`
	Consumer ConsumerKind `json:"consumer"`
	Data     any          `json:"data"`
}
