package heading

import (
	"math"
	"testing"
	"time"
)

func TestRotationMatrixFlatDevice(t *testing.T) {
	r, ok := RotationMatrix([3]float64{0, 0, StandardGravity}, [3]float64{0, 22, -42})
	if !ok {
		t.Fatal("expected a valid rotation matrix")
	}
	want := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := range want {
		if math.Abs(r[i]-want[i]) > 1e-9 {
			t.Fatalf("r[%d] = %v, want %v (r=%v)", i, r[i], want[i], r)
		}
	}

	o := Orientation(r)
	for i, v := range o {
		if math.Abs(v) > 1e-9 {
			t.Errorf("orientation[%d] = %v, want 0", i, v)
		}
	}
}

func TestRotationMatrixDegenerate(t *testing.T) {
	tests := []struct {
		name    string
		gravity [3]float64
		mag     [3]float64
	}{
		{"free fall", [3]float64{0, 0, 0.01}, [3]float64{0, 20, -40}},
		{"field parallel to gravity", [3]float64{0, 0, StandardGravity}, [3]float64{0, 0, -40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := RotationMatrix(tt.gravity, tt.mag); ok {
				t.Fatal("expected the inputs to be rejected")
			}
		})
	}
}

func TestMagneticNorth(t *testing.T) {
	tests := []struct {
		azimuth float64
		want    float64
	}{
		{0, 0},
		{math.Pi / 2, 90},
		{-math.Pi / 2, 270},
		{math.Pi, 180},
	}
	for _, tt := range tests {
		if got := MagneticNorth(tt.azimuth); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MagneticNorth(%v) = %v, want %v", tt.azimuth, got, tt.want)
		}
	}
}

func TestDipoleDeclination(t *testing.T) {
	m := NewDipoleModel()
	now := time.Now()

	// On the meridian of the pole the field points straight north
	if d := m.Declination(40, GeomagneticPoleLongitude, 0, now); math.Abs(d) > 1e-6 {
		t.Fatalf("declination on the pole meridian = %v, want 0", d)
	}

	// West of the pole meridian the pole lies to the east, and vice versa
	if d := m.Declination(40, -120, 0, now); d <= 0 {
		t.Fatalf("expected easterly declination west of the pole, got %v", d)
	}
	if d := m.Declination(40, -20, 0, now); d >= 0 {
		t.Fatalf("expected westerly declination east of the pole, got %v", d)
	}
}
