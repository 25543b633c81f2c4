package model

// MapBounds is the world-space rectangle covered by the minimap image.
type MapBounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Valid reports whether the bounds describe a non-empty rectangle.
func (b MapBounds) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}

// MapConfig describes the world-to-map projection and the default detection radii.
type MapConfig struct {
	Bounds    *MapBounds // nil when unknown; projection falls back to Scale
	InvertY   bool
	Scale     float64 // fallback divisor when bounds are unknown
	CellUnits float64 // game units per world coordinate unit

	ObserverRadiusUnits float64
	SentryRadiusUnits   float64
	ObserverRadiusPct   float64 // 0 = derive from units
	SentryRadiusPct     float64 // 0 = derive from units
}

// ShapeKind is the geometry of an objective/region.
type ShapeKind string

const (
	ShapePoint   ShapeKind = "point"
	ShapeCircle  ShapeKind = "circle"
	ShapePolygon ShapeKind = "polygon"
)

// Shape is a point, circle or polygon. Points are world coordinates unless
// Percent is set, in which case they are already map percentages (0-100) as
// written by the map editor. R follows the same units as Points.
type Shape struct {
	Kind    ShapeKind
	Points  []Vec2
	R       float64
	Percent bool
}

// Objective is a named map landmark or region (Roshan pit, towers, outposts...).
type Objective struct {
	ID    string
	Name  string
	Type  string
	Side  Side
	Tags  []string
	Shape Shape
}
