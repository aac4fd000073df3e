// Package frame converts target positions between the three coordinate spaces
// the motion core works in: capture-image pixels, normalized [-1, 1] offsets
// relative to the frame center, and angular offsets in degrees under a
// field-of-view model. All conversions are pure functions of an immutable
// Frame; a Frame is only rebuilt when the capture or display configuration
// changes.
package frame

import (
	"fmt"
	"math"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// Config describes the capture region and the display it is cut from.
type Config struct {
	// CaptureSize is the side length in pixels of the square capture region.
	CaptureSize int `mapstructure:"capture_size" yaml:"capture_size"`
	// DisplayWidth and DisplayHeight are the full output surface dimensions.
	DisplayWidth  int `mapstructure:"display_width" yaml:"display_width"`
	DisplayHeight int `mapstructure:"display_height" yaml:"display_height"`
	// HorizontalFOV is the horizontal field of view of the display in degrees.
	HorizontalFOV float64 `mapstructure:"horizontal_fov" yaml:"horizontal_fov"`
	// AimOffsetRatio shifts the aim point upward by this fraction of a target
	// box height. Zero aims at the box center.
	AimOffsetRatio float64 `mapstructure:"aim_offset_ratio" yaml:"aim_offset_ratio"`
}

// Validate reports the first out-of-range field, if any.
func (c Config) Validate() error {
	if c.CaptureSize <= 0 {
		return fmt.Errorf("frame: capture_size must be positive, got %d", c.CaptureSize)
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		return fmt.Errorf("frame: display dimensions must be positive, got %dx%d", c.DisplayWidth, c.DisplayHeight)
	}
	if c.HorizontalFOV <= 0 || c.HorizontalFOV >= 180 {
		return fmt.Errorf("frame: horizontal_fov must be in (0, 180), got %.1f", c.HorizontalFOV)
	}
	if c.AimOffsetRatio < 0 || c.AimOffsetRatio > 1 {
		return fmt.Errorf("frame: aim_offset_ratio must be in [0, 1], got %.2f", c.AimOffsetRatio)
	}
	return nil
}

// DefaultConfig matches a 320px capture cut from a 2560x1600 display with a
// 103 degree horizontal field of view.
func DefaultConfig() Config {
	return Config{
		CaptureSize:    320,
		DisplayWidth:   2560,
		DisplayHeight:  1600,
		HorizontalFOV:  103.0,
		AimOffsetRatio: 0.38,
	}
}

// Frame holds the derived field-of-view geometry for a Config. All methods
// are pure and safe for concurrent use.
type Frame struct {
	cfg Config

	center        float64
	aspectRatio   float64
	verticalFOV   float64
	effectiveFOVH float64
	effectiveFOVV float64
}

// New derives the frame geometry from cfg, failing fast on invalid values.
func New(cfg Config) (*Frame, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Frame{cfg: cfg}
	f.center = float64(cfg.CaptureSize) / 2.0
	f.aspectRatio = float64(cfg.DisplayWidth) / float64(cfg.DisplayHeight)

	// The vertical FOV follows from the horizontal FOV and the aspect ratio.
	f.verticalFOV = 2 * deg(math.Atan(math.Tan(rad(cfg.HorizontalFOV/2))/f.aspectRatio))

	// The capture region covers only a slice of the display, so only a slice
	// of the full FOV.
	captureRatioH := float64(cfg.CaptureSize) / float64(cfg.DisplayWidth)
	captureRatioV := float64(cfg.CaptureSize) / float64(cfg.DisplayHeight)
	f.effectiveFOVH = cfg.HorizontalFOV * captureRatioH
	f.effectiveFOVV = f.verticalFOV * captureRatioV

	return f, nil
}

// Config returns the configuration the frame was built from.
func (f *Frame) Config() Config { return f.cfg }

// Center returns the pixel coordinates of the capture center.
func (f *Frame) Center() geom.Vector2 { return geom.Vector2{X: f.center, Y: f.center} }

// VerticalFOV returns the derived vertical field of view in degrees.
func (f *Frame) VerticalFOV() float64 { return f.verticalFOV }

// EffectiveFOV returns the per-axis field of view covered by the capture
// region, in degrees.
func (f *Frame) EffectiveFOV() (h, v float64) { return f.effectiveFOVH, f.effectiveFOVV }

// PixelToNormalized maps capture pixel coordinates to [-1, 1] offsets
// relative to the frame center. A degenerate zero-sized center yields a zero
// offset rather than a division by zero.
func (f *Frame) PixelToNormalized(x, y float64) (nx, ny float64) {
	if f.center == 0 {
		return 0, 0
	}
	return (x - f.center) / f.center, (y - f.center) / f.center
}

// NormalizedToPixel is the inverse of PixelToNormalized.
func (f *Frame) NormalizedToPixel(nx, ny float64) (x, y float64) {
	return nx*f.center + f.center, ny*f.center + f.center
}

// NormalizedToAngle maps normalized offsets to angular offsets in degrees
// using the per-axis effective FOV.
func (f *Frame) NormalizedToAngle(nx, ny float64) (angleH, angleV float64) {
	return nx * (f.effectiveFOVH / 2), ny * (f.effectiveFOVV / 2)
}

// AngleToNormalized is the inverse of NormalizedToAngle.
func (f *Frame) AngleToNormalized(angleH, angleV float64) (nx, ny float64) {
	return angleH / (f.effectiveFOVH / 2), angleV / (f.effectiveFOVV / 2)
}

// PixelToAngle maps capture pixel coordinates directly to angular offsets.
func (f *Frame) PixelToAngle(x, y float64) (angleH, angleV float64) {
	nx, ny := f.PixelToNormalized(x, y)
	return f.NormalizedToAngle(nx, ny)
}

// AngleToPixelDelta translates an angular correction into the pixel
// displacement the actuator must produce, relative to the frame center.
func (f *Frame) AngleToPixelDelta(angleH, angleV float64) geom.Vector2 {
	nx, ny := f.AngleToNormalized(angleH, angleV)
	return geom.Vector2{X: nx * f.center, Y: ny * f.center}
}

// AimPoint shifts a target box center upward by the configured fraction of
// the box height, yielding the point the pointer should settle on.
func (f *Frame) AimPoint(boxCenter geom.Vector2, boxHeight float64) geom.Vector2 {
	return geom.Vector2{X: boxCenter.X, Y: boxCenter.Y - boxHeight*f.cfg.AimOffsetRatio}
}

func rad(degrees float64) float64 { return degrees * math.Pi / 180 }
func deg(radians float64) float64 { return radians * 180 / math.Pi }
