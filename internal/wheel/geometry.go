package wheel

import "math"

// Radius tiers keep option markers from overlapping as the wheel fills up.
const (
	BaseRadius    = 120.0 // n <= 8
	LargeRadius   = 140.0 // 8 < n <= 12
	LargestRadius = 160.0 // n > 12
)

// FontSize is a named text size for option markers.
type FontSize string

const (
	FontMedium FontSize = "md"
	FontSmall  FontSize = "sm"
	FontXSmall FontSize = "xs"
)

// Position places one option relative to the wheel's center.
// AngleDeg is measured from the +X axis; with screen coordinates (Y grows
// downward) that turns clockwise.
type Position struct {
	Index    int     `json:"index"`
	AngleDeg float64 `json:"angle_deg"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Marker is the display size of an option marker.
type Marker struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	FontSize FontSize `json:"font_size"`
}

// Geometry is the full layout for a wheel of N options.
type Geometry struct {
	Count     int        `json:"count"`
	Radius    float64    `json:"radius"`
	Marker    Marker     `json:"marker"`
	Positions []Position `json:"positions"`
}

// RadiusFor returns the ring radius for n options.
func RadiusFor(n int) float64 {
	switch {
	case n > 12:
		return LargestRadius
	case n > 8:
		return LargeRadius
	default:
		return BaseRadius
	}
}

// MarkerFor returns the marker size tier for n options.
func MarkerFor(n int) Marker {
	switch {
	case n <= 6:
		return Marker{Width: 90, Height: 90, FontSize: FontMedium}
	case n <= 10:
		return Marker{Width: 75, Height: 75, FontSize: FontSmall}
	case n <= 15:
		return Marker{Width: 60, Height: 60, FontSize: FontXSmall}
	default:
		return Marker{Width: 50, Height: 50, FontSize: FontXSmall}
	}
}

// AnglePerOption is the angular width of one slot on a wheel of n options.
func AnglePerOption(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 360.0 / float64(n)
}

// Layout places n options evenly around the ring. Option i sits at
// i·360/n degrees. Layout(0) returns an empty ring.
func Layout(n int) Geometry {
	if n < 0 {
		n = 0
	}
	g := Geometry{
		Count:     n,
		Radius:    RadiusFor(n),
		Marker:    MarkerFor(n),
		Positions: make([]Position, n),
	}
	step := AnglePerOption(n)
	for i := 0; i < n; i++ {
		angle := float64(i) * step
		rad := angle * math.Pi / 180
		g.Positions[i] = Position{
			Index:    i,
			AngleDeg: angle,
			X:        g.Radius * math.Cos(rad),
			Y:        g.Radius * math.Sin(rad),
		}
	}
	return g
}

// IndexAt returns the option under the pointer once the wheel has turned
// by angle degrees. At a spin's TotalRotation it is the selected index.
// It returns -1 for an empty wheel.
func IndexAt(angle float64, n int, pointerOffsetDeg float64) int {
	if n <= 0 {
		return -1
	}
	i := int(math.Round((angle-pointerOffsetDeg)/AnglePerOption(n))) % n
	if i < 0 {
		i += n
	}
	return i
}
