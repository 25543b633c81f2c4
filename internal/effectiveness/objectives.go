package effectiveness

import (
	"math"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

type point struct{ u, v float64 }

// NearestObjective returns the closest objective to (u, v) and its distance
// in percent of map span. Points inside a circle or polygon are at distance 0.
func NearestObjective(u, v float64, objectives []model.Objective, proj spatial.Projection) (string, float64, bool) {
	best, bestName, found := math.Inf(1), "", false
	for _, o := range objectives {
		d, ok := distanceTo(point{u, v}, o.Shape, proj)
		if !ok {
			continue
		}
		if d < best {
			best, bestName, found = d, o.Name, true
		}
	}
	if !found {
		return "", 0, false
	}
	if bestName == "" {
		bestName = "unnamed"
	}
	return bestName, best, true
}

func distanceTo(q point, s model.Shape, proj spatial.Projection) (float64, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	pts := make([]point, len(s.Points))
	for i, p := range s.Points {
		if s.Percent {
			pts[i].u, pts[i].v = proj.NormalizePct(p)
		} else {
			pts[i].u, pts[i].v = proj.Normalize(p)
		}
	}

	switch s.Kind {
	case model.ShapeCircle:
		r := s.R
		if !s.Percent {
			if span := proj.Span(); span > 0 {
				r = s.R / span * 100
			} else {
				r = 0
			}
		}
		d := dist(q, pts[0]) - math.Max(0, r)
		return math.Max(0, d), true
	case model.ShapePolygon:
		if len(pts) < 3 {
			return nearestVertex(q, pts), true
		}
		if insidePolygon(q, pts) {
			return 0, true
		}
		best := math.Inf(1)
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			best = math.Min(best, segmentDist(q, a, b))
		}
		return best, true
	default:
		return nearestVertex(q, pts), true
	}
}

// dist is in percent of map span.
func dist(a, b point) float64 {
	return spatial.DistancePct(a.u, a.v, b.u, b.v)
}

func nearestVertex(q point, pts []point) float64 {
	best := math.Inf(1)
	for _, p := range pts {
		best = math.Min(best, dist(q, p))
	}
	return best
}

func segmentDist(q, a, b point) float64 {
	du, dv := b.u-a.u, b.v-a.v
	l2 := du*du + dv*dv
	if l2 == 0 {
		return dist(q, a)
	}
	t := ((q.u-a.u)*du + (q.v-a.v)*dv) / l2
	t = math.Max(0, math.Min(1, t))
	return dist(q, point{a.u + t*du, a.v + t*dv})
}

// insidePolygon is the even-odd ray casting test.
func insidePolygon(q point, pts []point) bool {
	in := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.v > q.v) != (b.v > q.v) {
			x := (b.u-a.u)*(q.v-a.v)/(b.v-a.v) + a.u
			if q.u < x {
				in = !in
			}
		}
	}
	return in
}
