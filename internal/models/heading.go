package models

// Heading is a compass reading in degrees
type Heading struct {
	TrueHeading float64 `json:"trueHeading"` // -1 when declination is unknown
	MagHeading  float64 `json:"magHeading"`
	Accuracy    int     `json:"accuracy"` // 3: high, 2: medium, 1: low, 0: none
}

// HeadingEvent is emitted for every significant compass change
type HeadingEvent struct {
	WatchID int     `json:"watchId"`
	Heading Heading `json:"heading"`
}

// UnknownHeading marks a heading that could not be derived
const UnknownHeading = -1
