package models

import "time"

// TrackPoint represents a fix recorded by the simulated device
type TrackPoint struct {
	ID        int64     `json:"id" db:"id"`
	DataTime  int64     `json:"dataTime" db:"dataTime"` // Unix timestamp in milliseconds
	Longitude float64   `json:"longitude" db:"longitude"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Altitude  float64   `json:"altitude" db:"altitude"`
	Heading   float64   `json:"heading" db:"heading"`
	Accuracy  float64   `json:"accuracy" db:"accuracy"`
	Speed     float64   `json:"speed" db:"speed"`
	Mocked    bool      `json:"mocked" db:"mocked"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Location converts the stored point into a fix
func (p TrackPoint) Location() Location {
	return Location{
		Coords: Coords{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Altitude:  p.Altitude,
			Accuracy:  p.Accuracy,
			Heading:   p.Heading,
			Speed:     p.Speed,
		},
		Timestamp: p.DataTime,
		Mocked:    p.Mocked,
	}
}

// TrackPointFromLocation builds a storable point from a fix
func TrackPointFromLocation(l Location) TrackPoint {
	return TrackPoint{
		DataTime:  l.Timestamp,
		Longitude: l.Coords.Longitude,
		Latitude:  l.Coords.Latitude,
		Altitude:  l.Coords.Altitude,
		Heading:   l.Coords.Heading,
		Accuracy:  l.Coords.Accuracy,
		Speed:     l.Coords.Speed,
		Mocked:    l.Mocked,
	}
}

// TrackPointFilter represents filter parameters for querying recorded points
type TrackPointFilter struct {
	StartTime int64 `form:"startTime"` // Unix timestamp in milliseconds
	EndTime   int64 `form:"endTime"`   // Unix timestamp in milliseconds
	Limit     int   `form:"limit"`
}
