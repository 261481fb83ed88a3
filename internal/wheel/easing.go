package wheel

import (
	"math"
	"time"
)

// Control points of the standard "ease" curve, cubic-bezier(0.42, 0, 1, 1).
const (
	easeX1 = 0.42
	easeY1 = 0.0
	easeX2 = 1.0
	easeY2 = 1.0
)

func bezier(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierSlope(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

// ease evaluates the cubic-bezier curve at x in [0, 1].
func ease(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	// Newton-Raphson on x(t), falling back to bisection on a flat slope.
	t := x
	for i := 0; i < 8; i++ {
		dx := bezier(t, easeX1, easeX2) - x
		if math.Abs(dx) < 1e-7 {
			return bezier(t, easeY1, easeY2)
		}
		slope := bezierSlope(t, easeX1, easeX2)
		if math.Abs(slope) < 1e-6 {
			break
		}
		t -= dx / slope
	}

	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 50; i++ {
		v := bezier(t, easeX1, easeX2)
		if math.Abs(v-x) < 1e-7 {
			break
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return bezier(t, easeY1, easeY2)
}

// EaseOut is the ease curve mirrored: fast start, long gentle settle.
// EaseOut(0) == 0 and EaseOut(1) == 1.
func EaseOut(x float64) float64 {
	return 1 - ease(1-x)
}

// Progress returns the fraction of the animation elapsed, clamped to [0, 1].
func Progress(elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed >= total {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(total)
}

// AngleAt is the decorative wheel angle after elapsed time. It always ends
// exactly on r.TotalRotation.
func AngleAt(r Result, elapsed time.Duration) float64 {
	p := Progress(elapsed, r.Duration())
	if p >= 1 {
		return r.TotalRotation
	}
	return r.TotalRotation * EaseOut(p)
}
