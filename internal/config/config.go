package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/pable/go-dota-wards/internal/model"
)

type Config struct {
	Map        MapConfig
	Analysis   AnalysisConfig
	Storage    StorageConfig
	Objectives ObjectivesConfig
	Server     ServerConfig
}

type MapConfig struct {
	MinX                *float64 `toml:"min_x"`
	MaxX                *float64 `toml:"max_x"`
	MinY                *float64 `toml:"min_y"`
	MaxY                *float64 `toml:"max_y"`
	InvertY             bool     `toml:"invert_y"`
	Scale               float64  `toml:"scale"`
	CellUnits           float64  `toml:"cell_units"`
	ObserverRadiusUnits float64  `toml:"observer_radius_units"`
	SentryRadiusUnits   float64  `toml:"sentry_radius_units"`
	ObserverRadiusPct   float64  `toml:"observer_radius_pct"`
	SentryRadiusPct     float64  `toml:"sentry_radius_pct"`
}

type AnalysisConfig struct {
	MinCount         int     `toml:"min_count"`
	TopN             int     `toml:"top_n"`
	ClusterRadiusPct float64 `toml:"cluster_radius_pct"`
	DensityRadiusPct float64 `toml:"density_radius_pct"`
	Basis            string  `toml:"basis"`
	Metric           string  `toml:"metric"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type ObjectivesConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultConfig matches the OpenDota grid: coordinates are 128-unit cells and
// the map has no explicit bounds, so projection infers its scale from the data.
func DefaultConfig() Config {
	return Config{
		Map: MapConfig{
			CellUnits:           128,
			ObserverRadiusUnits: 1600,
			SentryRadiusUnits:   900,
		},
		Analysis: AnalysisConfig{
			MinCount: 1,
			TopN:     15,
			Basis:    string(model.BasisLifetime),
			Metric:   string(model.MetricAvg),
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(userHome(), ".wardmetrics", "wards.db"),
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8082",
			CORSOrigins: []string{"*"},
		},
	}
}

// DefaultPath is ~/.config/wardmetrics/config.toml.
func DefaultPath() string {
	return filepath.Join(userHome(), ".config", "wardmetrics", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the TOML file at path over the defaults. A missing file
// yields the defaults unchanged; unknown top-level keys become warnings.
func LoadFrom(path string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	md, err := toml.Decode(string(data), &result.Config)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	for _, key := range md.Undecoded() {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key.String()))
	}

	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

func validate(cfg *Config) error {
	m := cfg.Map
	bounds := []*float64{m.MinX, m.MaxX, m.MinY, m.MaxY}
	set := 0
	for _, b := range bounds {
		if b != nil {
			set++
		}
	}
	if set != 0 && set != 4 {
		return fmt.Errorf("map: min_x, max_x, min_y and max_y must be set together")
	}
	if set == 4 && (*m.MaxX <= *m.MinX || *m.MaxY <= *m.MinY) {
		return fmt.Errorf("map: bounds must have max greater than min")
	}
	if m.CellUnits < 0 || m.Scale < 0 {
		return fmt.Errorf("map: cell_units and scale must not be negative")
	}
	if m.ObserverRadiusUnits < 0 || m.SentryRadiusUnits < 0 || m.ObserverRadiusPct < 0 || m.SentryRadiusPct < 0 {
		return fmt.Errorf("map: detection radii must not be negative")
	}

	a := cfg.Analysis
	if a.MinCount < 1 {
		return fmt.Errorf("analysis.min_count must be at least 1, got %d", a.MinCount)
	}
	if a.TopN < 0 {
		return fmt.Errorf("analysis.top_n must not be negative, got %d", a.TopN)
	}
	if a.ClusterRadiusPct < 0 || a.DensityRadiusPct < 0 {
		return fmt.Errorf("analysis: radii must not be negative")
	}
	switch model.Basis(a.Basis) {
	case model.BasisLifetime, model.BasisContest:
	default:
		return fmt.Errorf("analysis.basis must be %q or %q, got %q", model.BasisLifetime, model.BasisContest, a.Basis)
	}
	switch model.Metric(a.Metric) {
	case model.MetricAvg, model.MetricMedian:
	default:
		return fmt.Errorf("analysis.metric must be %q or %q, got %q", model.MetricAvg, model.MetricMedian, a.Metric)
	}
	return nil
}

// MapModel converts the [map] section into the projection description used by
// the analytics packages.
func (c *Config) MapModel() model.MapConfig {
	m := c.Map
	out := model.MapConfig{
		InvertY:             m.InvertY,
		Scale:               m.Scale,
		CellUnits:           m.CellUnits,
		ObserverRadiusUnits: m.ObserverRadiusUnits,
		SentryRadiusUnits:   m.SentryRadiusUnits,
		ObserverRadiusPct:   m.ObserverRadiusPct,
		SentryRadiusPct:     m.SentryRadiusPct,
	}
	if m.MinX != nil && m.MaxX != nil && m.MinY != nil && m.MaxY != nil {
		out.Bounds = &model.MapBounds{MinX: *m.MinX, MaxX: *m.MaxX, MinY: *m.MinY, MaxY: *m.MaxY}
	}
	return out
}

// Filter builds the initial Filter Context from the [analysis] defaults.
func (c *Config) Filter() model.Filter {
	f := model.DefaultFilter()
	a := c.Analysis
	return f.WithMinCount(a.MinCount).
		WithTopN(a.TopN).
		WithClusterRadius(a.ClusterRadiusPct).
		WithBasis(model.Basis(a.Basis)).
		WithMetric(model.Metric(a.Metric)).
		WithDensityRadius(a.DensityRadiusPct)
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
