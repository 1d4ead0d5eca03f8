package models

import "time"

// AccuracyTier is the caller-facing accuracy level
type AccuracyTier int

const (
	AccuracyLowest AccuracyTier = iota + 1
	AccuracyLow
	AccuracyBalanced
	AccuracyHigh
	AccuracyHighest
	AccuracyBestForNavigation
)

// Priority is the provider-level power/accuracy trade-off
type Priority string

const (
	PriorityNoPower      Priority = "no_power"
	PriorityLowPower     Priority = "low_power"
	PriorityBalanced     Priority = "balanced"
	PriorityHighAccuracy Priority = "high_accuracy"
)

// LocationOptions are the per-call options accepted by position requests.
// Durations are expressed in milliseconds on the wire.
type LocationOptions struct {
	TimeoutMillis      *int64       `json:"timeout,omitempty"`
	MaximumAgeMillis   *int64       `json:"maximumAge,omitempty"`
	Accuracy           AccuracyTier `json:"accuracy,omitempty"`
	TimeIntervalMillis *int64       `json:"timeInterval,omitempty"`
	DistanceInterval   *float64     `json:"distanceInterval,omitempty"` // Meters
	ShowSettingsDialog *bool        `json:"mayShowUserSettingsDialog,omitempty"`
}

// Timeout returns the request deadline, nil when the request never times out
func (o LocationOptions) Timeout() *time.Duration {
	return millis(o.TimeoutMillis)
}

// MaximumAge returns the oldest acceptable cached fix age, nil when caching is not allowed
func (o LocationOptions) MaximumAge() *time.Duration {
	return millis(o.MaximumAgeMillis)
}

// MayShowSettingsDialog defaults to true when the option is absent
func (o LocationOptions) MayShowSettingsDialog() bool {
	return o.ShowSettingsDialog == nil || *o.ShowSettingsDialog
}

// AccuracyOrDefault returns the requested tier, balanced when unset or out of range
func (o LocationOptions) AccuracyOrDefault() AccuracyTier {
	if o.Accuracy < AccuracyLowest || o.Accuracy > AccuracyBestForNavigation {
		return AccuracyBalanced
	}
	return o.Accuracy
}

// Request converts the options into a provider request
func (o LocationOptions) Request() LocationRequest {
	tier := o.AccuracyOrDefault()
	distance, interval := tierDefaults(tier)

	if o.TimeIntervalMillis != nil {
		interval = time.Duration(*o.TimeIntervalMillis) * time.Millisecond
	}
	if o.DistanceInterval != nil {
		distance = *o.DistanceInterval
	}

	return LocationRequest{
		Priority:             tier.Priority(),
		Interval:             interval,
		FastestInterval:      interval,
		MaxWaitTime:          interval,
		SmallestDisplacement: distance,
	}
}

// Priority maps an accuracy tier to a provider priority
func (t AccuracyTier) Priority() Priority {
	switch t {
	case AccuracyLowest:
		return PriorityNoPower
	case AccuracyLow:
		return PriorityLowPower
	case AccuracyHigh, AccuracyHighest, AccuracyBestForNavigation:
		return PriorityHighAccuracy
	default:
		return PriorityBalanced
	}
}

// tierDefaults returns the default displacement (meters) and interval for a tier
func tierDefaults(t AccuracyTier) (float64, time.Duration) {
	switch t {
	case AccuracyLowest:
		return 3000, 10 * time.Second
	case AccuracyLow:
		return 1000, 5 * time.Second
	case AccuracyHigh:
		return 50, 2 * time.Second
	case AccuracyHighest, AccuracyBestForNavigation:
		return 25, time.Second
	default:
		return 100, 3 * time.Second
	}
}

func millis(v *int64) *time.Duration {
	if v == nil {
		return nil
	}
	d := time.Duration(*v) * time.Millisecond
	return &d
}

// LocationRequest is what the engine hands to the platform provider
type LocationRequest struct {
	Priority             Priority      `json:"priority"`
	Interval             time.Duration `json:"interval"`
	FastestInterval      time.Duration `json:"fastestInterval"`
	MaxWaitTime          time.Duration `json:"maxWaitTime"`
	SmallestDisplacement float64       `json:"smallestDisplacement"` // Meters
	NumUpdates           int           `json:"numUpdates"`           // 0 means unbounded
}

// SingleUpdate returns a copy of the request limited to one delivery
func (r LocationRequest) SingleUpdate() LocationRequest {
	r.NumUpdates = 1
	return r
}
