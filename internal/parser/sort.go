package parser

import (
	"sort"

	"github.com/pable/go-dota-wards/internal/model"
)

// sortPlacements orders placements by match clock, observers before sentries
// at the same instant.
func sortPlacements(ps []model.Placement) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Time != ps[j].Time {
			return ps[i].Time < ps[j].Time
		}
		return ps[i].Kind < ps[j].Kind
	})
}
