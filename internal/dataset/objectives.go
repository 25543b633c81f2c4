package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/go-dota-wards/internal/model"
)

// ObjectivesResult is a parsed objectives file plus the entries it had to drop.
type ObjectivesResult struct {
	Objectives []model.Objective
	Warnings   []string
}

// LoadObjectives reads a map-locations file. A missing file is not an error:
// it yields no objectives, and the objective sub-score degrades to 0.
func LoadObjectives(path string) (*ObjectivesResult, error) {
	if path == "" {
		return &ObjectivesResult{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ObjectivesResult{}, nil
		}
		return nil, fmt.Errorf("read objectives: %w", err)
	}
	return ParseObjectives(data)
}

// ParseObjectives decodes map-locations JSON. Accepted shapes:
//
//   - the map editor's file export: {"patch", "items": [{..., "shape": {kind, r}, "points": [{x, y}]}]}
//   - the map editor's clipboard export: {"objectives": [{x, y, type}]}
//   - a bare array of locations, or {"locations": [...]}
//
// Both editor exports are in map percent. Anything else is world units unless
// "space" is "pct" at the top level or on an individual location. Coordinates
// are read from shape.points, item points, cx/cy or x/y, in that order.
func ParseObjectives(data []byte) (*ObjectivesResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse objectives: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	items := root
	defaultPct := false
	if root.IsObject() {
		items = first(root, "items", "locations", "objectives")
		defaultPct = root.Get("patch").Exists() || root.Get("items").Exists() || root.Get("objectives").Exists()
		if sp := root.Get("space"); sp.Exists() {
			defaultPct = isPctSpace(sp.String())
		}
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("parse objectives: no location array")
	}

	res := &ObjectivesResult{}
	for i, it := range items.Array() {
		o := model.Objective{
			ID:   it.Get("id").String(),
			Name: it.Get("name").String(),
			Type: it.Get("type").String(),
			Side: model.ParseSide(it.Get("side").String()),
		}
		if o.Name == "" {
			o.Name = o.Type
		}
		for _, tag := range it.Get("tags").Array() {
			o.Tags = append(o.Tags, tag.String())
		}
		pct := defaultPct
		if sp := it.Get("space"); sp.Exists() {
			pct = isPctSpace(sp.String())
		}

		shape := it.Get("shape")
		o.Shape = model.Shape{
			Kind:    model.ShapeKind(strings.ToLower(shape.Get("kind").String())),
			R:       numberOr0(shape.Get("r")),
			Percent: pct,
		}
		o.Shape.Points = readPoints(shape.Get("points"))
		if len(o.Shape.Points) == 0 {
			o.Shape.Points = readPoints(it.Get("points"))
		}
		if len(o.Shape.Points) == 0 {
			if p, ok := readPair(it, "cx", "cy"); ok {
				o.Shape.Points = []model.Vec2{p}
			} else if p, ok := readPair(it, "x", "y"); ok {
				o.Shape.Points = []model.Vec2{p}
			}
			if len(o.Shape.Points) == 1 && (o.Shape.Kind == "" || o.Shape.Kind == model.ShapePolygon) {
				o.Shape.Kind = model.ShapePoint
			}
		}
		if len(o.Shape.Points) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("objective %d (%s) has no coordinates, skipped", i, label(o)))
			continue
		}
		switch o.Shape.Kind {
		case model.ShapePoint, model.ShapeCircle, model.ShapePolygon:
		default:
			o.Shape.Kind = model.ShapePoint
		}
		if o.Shape.Kind == model.ShapeCircle && o.Shape.R <= 0 && pct {
			o.Shape.R = 4 // editor default
		}
		res.Objectives = append(res.Objectives, o)
	}
	return res, nil
}

func readPoints(arr gjson.Result) []model.Vec2 {
	var out []model.Vec2
	for _, p := range arr.Array() {
		if v, ok := readPair(p, "x", "y"); ok {
			out = append(out, v)
		}
	}
	return out
}

func readPair(r gjson.Result, xKey, yKey string) (model.Vec2, bool) {
	x, y := r.Get(xKey), r.Get(yKey)
	if !x.Exists() || !y.Exists() {
		return model.Vec2{}, false
	}
	return model.Vec2{X: numberOr0(x), Y: numberOr0(y)}, true
}

func label(o model.Objective) string {
	for _, s := range []string{o.Name, o.ID, o.Type} {
		if s != "" {
			return s
		}
	}
	return "unnamed"
}

func isPctSpace(s string) bool {
	switch strings.ToLower(s) {
	case "pct", "percent", "%":
		return true
	}
	return false
}
