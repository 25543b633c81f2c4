package dataset

import "github.com/pable/go-dota-wards/internal/model"

// Placements flattens a dataset's per-sample detail back into placements so
// it can be stored. Spots that only carry coarse aggregates cannot be
// flattened; their keys are returned in coarseOnly.
func Placements(ds *model.Dataset, matchID int64) (placements []model.Placement, coarseOnly []string) {
	add := func(spots []model.Spot, kind model.WardKind) {
		for i := range spots {
			s := &spots[i]
			if !s.HasSamples() {
				if s.Count > 0 {
					coarseOnly = append(coarseOnly, s.Key)
				}
				continue
			}
			for _, sm := range s.Samples {
				pos := s.Pos
				if sm.HasPos {
					pos = sm.Pos
				}
				placements = append(placements, model.Placement{
					MatchID:   matchID,
					Kind:      kind,
					Pos:       pos,
					Time:      sm.Timestamp,
					Side:      sm.Side,
					TeamID:    sm.TeamID,
					AccountID: sm.AccountID,
					Lifetime:  sm.Lifetime,
				})
			}
		}
	}
	add(ds.Spots, model.KindObserver)
	add(ds.Sentries, model.KindSentry)
	return placements, coarseOnly
}
