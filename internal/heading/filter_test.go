package heading

import (
	"math"
	"testing"
	"time"

	"github.com/jengzang/location-bridge-go/internal/models"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

func TestFilterOfferDebounce(t *testing.T) {
	f := NewFilter()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := f.Offer(deg(20), t0, true); !ok {
		t.Fatal("first significant reading should be emitted")
	}
	if _, ok := f.Offer(deg(30), t0.Add(time.Millisecond), true); ok {
		t.Fatal("reading within the time window must be dropped")
	}
	h, ok := f.Offer(deg(30), t0.Add(60*time.Millisecond), true)
	if !ok {
		t.Fatal("reading after the time window should be emitted")
	}
	if math.Abs(h.MagHeading-30) > 1e-9 {
		t.Fatalf("magHeading = %v, want 30", h.MagHeading)
	}
}

func TestFilterOfferAngleThreshold(t *testing.T) {
	f := NewFilter()
	t0 := time.Now()

	f.Offer(1.0, t0, true)
	if _, ok := f.Offer(1.0+DegreeDelta*0.9, t0.Add(time.Second), true); ok {
		t.Fatal("a change below DegreeDelta must be dropped")
	}
	if _, ok := f.Offer(1.0+DegreeDelta*1.5, t0.Add(2*time.Second), true); !ok {
		t.Fatal("a change above DegreeDelta should be emitted")
	}
}

func TestFilterTrueNorth(t *testing.T) {
	tests := []struct {
		name        string
		declination *float64
		allowed     bool
		azimuth     float64
		want        float64
	}{
		{"no declination", nil, true, deg(90), models.UnknownHeading},
		{"not permitted", ptr(3.5), false, deg(90), models.UnknownHeading},
		{"east declination", ptr(3.5), true, deg(90), 93.5},
		{"wraps past north", ptr(10), true, deg(355), 5},
		{"west declination", ptr(-12), true, deg(5), 353},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter()
			if tt.declination != nil {
				f.SetDeclination(*tt.declination)
			}
			h, ok := f.Offer(tt.azimuth, time.Now(), tt.allowed)
			if !ok {
				t.Fatal("expected an emission")
			}
			if math.Abs(h.TrueHeading-tt.want) > 1e-9 {
				t.Fatalf("trueHeading = %v, want %v", h.TrueHeading, tt.want)
			}
		})
	}
}

func TestFilterUpdateNeedsBothSensors(t *testing.T) {
	f := NewFilter()
	f.SetGravity([3]float64{0, 0, StandardGravity})
	if _, ok := f.Update(time.Now(), true); ok {
		t.Fatal("update without magnetometer data must not emit")
	}

	f.SetGeomagnetic([3]float64{20, 0, -40})
	f.SetAccuracy(2)
	h, ok := f.Update(time.Now(), true)
	if !ok {
		t.Fatal("expected an emission once both sensors reported")
	}
	if math.Abs(h.MagHeading-270) > 1e-9 || h.Accuracy != 2 {
		t.Fatalf("unexpected heading %+v", h)
	}
}

func ptr(v float64) *float64 { return &v }
