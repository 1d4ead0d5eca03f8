package models

import "time"

// Coords holds the geographic part of a fix
type Coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Accuracy  float64 `json:"accuracy"` // Horizontal accuracy in meters
	Heading   float64 `json:"heading"`  // Bearing in degrees
	Speed     float64 `json:"speed"`    // Meters per second
}

// Location represents a single resolved position sample
type Location struct {
	Coords    Coords `json:"coords"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp in milliseconds
	Mocked    bool   `json:"mocked"`
}

// Time returns the fix timestamp as a time.Time
func (l Location) Time() time.Time {
	return time.UnixMilli(l.Timestamp)
}

// Age returns how old the fix is relative to now
func (l Location) Age(now time.Time) time.Duration {
	return now.Sub(l.Time())
}

// Address represents a reverse geocoding result
type Address struct {
	City           string `json:"city"`
	Street         string `json:"street"`
	Region         string `json:"region"`
	Country        string `json:"country"`
	PostalCode     string `json:"postalCode"`
	Name           string `json:"name"`
	IsoCountryCode string `json:"isoCountryCode"`
}

// ProviderStatus describes which location providers are currently usable
type ProviderStatus struct {
	LocationServicesEnabled bool `json:"locationServicesEnabled"`
	GPSAvailable            bool `json:"gpsAvailable"`
	NetworkAvailable        bool `json:"networkAvailable"`
	PassiveAvailable        bool `json:"passiveAvailable"`
}

// AnyProviderAvailable reports whether at least one provider can deliver fixes
func (s ProviderStatus) AnyProviderAvailable() bool {
	return s.LocationServicesEnabled && (s.GPSAvailable || s.NetworkAvailable || s.PassiveAvailable)
}

// LocationEvent is emitted for every fix delivered to a watch
type LocationEvent struct {
	WatchID  int      `json:"watchId"`
	Location Location `json:"location"`
}

// Event names handed to the UI layer
const (
	EventLocationChanged = "locationChanged"
	EventHeadingChanged  = "headingChanged"
	EventTaskExecuted    = "taskExecuted"
)
