// Package detect defines the upstream target source the coordinator
// consumes. The core is indifferent to how candidates are produced; it only
// needs pixel centers, bounding sizes, and confidences.
package detect

import (
	"context"

	"github.com/xkilldash9x/reticle/internal/geom"
)

// Candidate is one detected target in capture pixel coordinates.
type Candidate struct {
	Center     geom.Vector2
	Width      float64
	Height     float64
	Confidence float64
}

// Detector supplies the candidates visible in the current capture frame.
// An empty slice with a nil error means nothing was detected.
type Detector interface {
	Detect(ctx context.Context) ([]Candidate, error)
}

// Select picks the candidate to pursue: the one nearest the origin, with the
// distance inflated for low-confidence detections so a confident target a
// little further out beats a dubious one right under the crosshair.
func Select(candidates []Candidate, origin geom.Vector2) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	best := candidates[0]
	bestScore := score(best, origin)
	for _, c := range candidates[1:] {
		if s := score(c, origin); s < bestScore {
			best, bestScore = c, s
		}
	}
	return best, true
}

func score(c Candidate, origin geom.Vector2) float64 {
	conf := c.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return c.Center.Dist(origin) * (2 - conf)
}
