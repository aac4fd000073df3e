package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vector2{X: 3, Y: 4}
	b := Vector2{X: -1, Y: 2}

	assert.Equal(t, Vector2{X: 2, Y: 6}, a.Add(b))
	assert.Equal(t, Vector2{X: 4, Y: 2}, a.Sub(b))
	assert.Equal(t, Vector2{X: 6, Y: 8}, a.Mul(2))
	assert.Equal(t, 5.0, a.Dot(b))
	assert.Equal(t, 25.0, a.MagSq())
	assert.Equal(t, 5.0, a.Mag())
	assert.Equal(t, 5.0, Vector2{}.Dist(a))
}

func TestNormalize(t *testing.T) {
	n := Vector2{X: 3, Y: 4}.Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-12)
	assert.InDelta(t, 0.8, n.Y, 1e-12)

	// Degenerate input stays zero instead of producing NaN.
	z := Vector2{}.Normalize()
	assert.Equal(t, Vector2{}, z)
}

func TestPerpIsOrthogonal(t *testing.T) {
	v := Vector2{X: 7, Y: -2}
	p := v.Perp()
	assert.Zero(t, v.Dot(p))
	assert.Equal(t, v.Mag(), p.Mag())
}

func TestLimit(t *testing.T) {
	v := Vector2{X: 30, Y: 40}
	capped := v.Limit(5)
	assert.InDelta(t, 5, capped.Mag(), 1e-12)
	assert.InDelta(t, math.Atan2(v.Y, v.X), math.Atan2(capped.Y, capped.X), 1e-12)

	small := Vector2{X: 1, Y: 1}
	assert.Equal(t, small, small.Limit(5))
}

func TestAngle(t *testing.T) {
	assert.InDelta(t, 0, Vector2{X: 1}.Angle(), 1e-12)
	assert.InDelta(t, math.Pi/2, Vector2{Y: 1}.Angle(), 1e-12)
}
