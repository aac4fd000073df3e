package frame

import (
	"math"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// Offset is one crosshair-to-target displacement expressed in all three
// coordinate spaces at once, with the scalar distance of each. Downstream
// components pick whichever representation their threshold mode uses.
type Offset struct {
	// Pixel is the displacement in capture pixels.
	Pixel geom.Vector2
	// PixelDist is |Pixel|.
	PixelDist float64

	// Norm is the displacement in normalized [-1, 1] units.
	Norm geom.Vector2
	// NormDist is |Norm|.
	NormDist float64

	// Angle carries the angular displacement in degrees: X is horizontal,
	// Y is vertical.
	Angle geom.Vector2
	// AngleDist is |Angle|.
	AngleDist float64
}

// ComposeOffset builds the three-space offset record for moving a pointer at
// origin onto target, both in capture pixel coordinates. The pixel component
// points from origin toward target, i.e. the direction the pointer must move.
func (f *Frame) ComposeOffset(target, origin geom.Vector2) Offset {
	px := target.Sub(origin)

	var norm geom.Vector2
	if f.center != 0 {
		norm = geom.Vector2{X: px.X / f.center, Y: px.Y / f.center}
	}

	angleH, angleV := f.NormalizedToAngle(norm.X, norm.Y)
	angle := geom.Vector2{X: angleH, Y: angleV}

	return Offset{
		Pixel:     px,
		PixelDist: px.Mag(),
		Norm:      norm,
		NormDist:  norm.Mag(),
		Angle:     angle,
		AngleDist: math.Hypot(angleH, angleV),
	}
}

// CenterOffset is shorthand for ComposeOffset against the frame center, the
// usual crosshair position.
func (f *Frame) CenterOffset(target geom.Vector2) Offset {
	return f.ComposeOffset(target, f.Center())
}
