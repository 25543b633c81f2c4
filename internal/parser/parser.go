// Package parser extracts ward placements from Dota 2 replays (.dem, optionally
// compressed as .bz2, .zst or .gz).
package parser

import (
	"compress/bzip2"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dotabuff/manta"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-dota-wards/internal/model"
)

const (
	ticksPerSecond = 30

	// cellUnits is the size of one CBodyComponent grid cell in world units.
	cellUnits = 128

	invalidHandle = 0xFFFFFF

	// steamID64Base converts a SteamID64 into a 32-bit account id.
	steamID64Base = 76561197960265728

	classObserver     = "CDOTA_NPC_Observer_Ward"
	classSentry       = "CDOTA_NPC_Sentry_Ward"
	classTrueSight    = "CDOTA_NPC_Observer_Ward_TrueSight"
	classGameRules    = "CDOTAGamerulesProxy"
	classPlayerRecord = "CDOTA_PlayerResource"
)

// Result is everything a replay contributes to the store.
type Result struct {
	MatchID    int64
	Placements []model.Placement
	Players    []model.PlayerInfo
	GameStart  float64 // seconds from replay start to the horn; 0 if never seen
}

// ParseReplay reads the replay at path. When matchID is 0 a stable synthetic
// id is derived from the file's contents so re-parsing is idempotent.
func ParseReplay(path string, matchID int64) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	if matchID == 0 {
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return nil, fmt.Errorf("hash replay: %w", err)
		}
		matchID = SyntheticMatchID(h.Sum(nil))
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek replay: %w", err)
		}
	}

	r, closeFn, err := decompress(f, path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return Parse(r, matchID)
}

// decompress wraps the replay according to its extension: .bz2 as served by
// the Valve replay CDN, .zst and .gz as produced by replay mirrors.
func decompress(r io.Reader, path string) (io.Reader, func(), error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".bz2"):
		return bzip2.NewReader(r), func() {}, nil
	case strings.HasSuffix(lower, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, nil
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	}
	return r, func() {}, nil
}

// SyntheticMatchID maps a content hash to a negative id, which never collides
// with a real match id.
func SyntheticMatchID(sum []byte) int64 {
	if len(sum) < 8 {
		return -1
	}
	v := int64(binary.BigEndian.Uint64(sum[:8]) >> 2)
	if v == 0 {
		v = 1
	}
	return -v
}

// Parse consumes an uncompressed replay stream.
func Parse(r io.Reader, matchID int64) (*Result, error) {
	p, err := manta.NewStreamParser(r)
	if err != nil {
		return nil, fmt.Errorf("new stream parser: %w", err)
	}

	active := make(map[int32]*wardTrack)
	var done []*wardTrack
	var gameStart float64

	p.OnEntity(func(e *manta.Entity, op manta.EntityOp) error {
		switch e.GetClassName() {
		case classGameRules:
			if v, ok := e.GetFloat32("m_pGameRules.m_flGameStartTime"); ok && v > 0 {
				gameStart = float64(v)
			}
			return nil
		case classObserver, classSentry, classTrueSight:
		default:
			return nil
		}

		idx := e.GetIndex()
		switch {
		case op.Flag(manta.EntityOpCreated):
			t := &wardTrack{kind: kindOf(e.GetClassName()), startTick: p.NetTick}
			t.observe(p, e)
			active[idx] = t
		case op.Flag(manta.EntityOpDeleted):
			t, ok := active[idx]
			if !ok {
				return nil
			}
			delete(active, idx)
			// The body component may only sync after creation, so read once more.
			t.observe(p, e)
			t.endTick, t.ended = p.NetTick, true
			done = append(done, t)
		case op.Flag(manta.EntityOpUpdated):
			if t, ok := active[idx]; ok {
				t.observe(p, e)
			}
		}
		return nil
	})

	if err := p.Start(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse replay: %w", err)
	}

	// Wards still standing when the replay ends live until the last tick.
	for _, t := range active {
		done = append(done, t)
	}

	res := &Result{MatchID: matchID, GameStart: gameStart}
	for _, t := range done {
		if t.cellX == 0 && t.cellY == 0 {
			continue
		}
		res.Placements = append(res.Placements, t.placement(matchID, gameStart, p.NetTick))
	}
	sortPlacements(res.Placements)
	res.Players = players(p)
	return res, nil
}

// wardTrack follows one ward entity from creation to deletion.
type wardTrack struct {
	kind         model.WardKind
	cellX, cellY float64
	side         model.Side
	accountID    int64
	startTick    uint32
	endTick      uint32
	ended        bool
}

// Sentries may report as the true-sight observer class.
func kindOf(class string) model.WardKind {
	switch class {
	case classSentry, classTrueSight:
		return model.KindSentry
	}
	return model.KindObserver
}

// observe refreshes whatever the entity currently exposes.
func (t *wardTrack) observe(p *manta.Parser, e *manta.Entity) {
	if x, y, ok := cellPosition(e); ok {
		t.cellX, t.cellY = x, y
	}
	if s := wardSide(p, e); s != model.SideUnknown {
		t.side = s
	}
	if t.accountID == 0 {
		t.accountID = ownerAccount(p, e)
	}
}

// placement converts the track into a placement on the match clock.
func (t *wardTrack) placement(matchID int64, gameStart float64, lastTick uint32) model.Placement {
	end := lastTick
	if t.ended {
		end = t.endTick
	}
	life := 0.0
	if end > t.startTick {
		life = float64(end-t.startTick) / ticksPerSecond
	}
	return model.Placement{
		MatchID:   matchID,
		Kind:      t.kind,
		Pos:       model.Vec2{X: t.cellX, Y: t.cellY},
		Time:      float64(t.startTick)/ticksPerSecond - gameStart,
		Side:      t.side,
		AccountID: t.accountID,
		Lifetime:  life,
	}
}

// cellPosition returns the CBodyComponent cell, which is the grid OpenDota
// reports ward logs on.
func cellPosition(e *manta.Entity) (x, y float64, ok bool) {
	cx, okX := readCell(e, "CBodyComponent.m_cellX")
	cy, okY := readCell(e, "CBodyComponent.m_cellY")
	if !okX || !okY {
		return 0, 0, false
	}
	vx, okVX := e.GetFloat32("CBodyComponent.m_vecX")
	vy, okVY := e.GetFloat32("CBodyComponent.m_vecY")
	if okVX && okVY {
		// Offsets within a cell are [0, cellUnits); keep the integer cell.
		cx += int64(float64(vx) / cellUnits)
		cy += int64(float64(vy) / cellUnits)
	}
	return float64(cx), float64(cy), true
}

func readCell(e *manta.Entity, field string) (int64, bool) {
	if v, ok := e.GetUint32(field); ok {
		return int64(v), true
	}
	if v, ok := e.GetInt32(field); ok {
		return int64(v), true
	}
	return 0, false
}

// wardSide resolves the ward's faction from its own team number, falling back
// to its owner's.
func wardSide(p *manta.Parser, e *manta.Entity) model.Side {
	if s := teamNum(e); s != model.SideUnknown {
		return s
	}
	if h := handleField(e, "m_hOwnerEntity"); h != 0 {
		if owner := p.FindEntityByHandle(h); owner != nil {
			return teamNum(owner)
		}
	}
	if pid, ok := e.GetInt32("m_nPlayerOwnerID"); ok {
		switch {
		case pid >= 0 && pid <= 4:
			return model.SideRadiant
		case pid >= 5 && pid <= 9:
			return model.SideDire
		}
	}
	return model.SideUnknown
}

func teamNum(e *manta.Entity) model.Side {
	var n int64
	if v, ok := e.GetInt32("m_iTeamNum"); ok {
		n = int64(v)
	} else if v, ok := e.GetUint32("m_iTeamNum"); ok {
		n = int64(v)
	} else if v, ok := e.Get("m_iTeamNum").(uint64); ok {
		n = int64(v)
	}
	switch model.Side(n) {
	case model.SideRadiant, model.SideDire:
		return model.Side(n)
	}
	return model.SideUnknown
}

func handleField(e *manta.Entity, name string) uint64 {
	var h uint64
	switch x := e.Get(name).(type) {
	case uint32:
		h = uint64(x)
	case uint64:
		h = x
	case int32:
		if x > 0 {
			h = uint64(x)
		}
	case int64:
		if x > 0 {
			h = uint64(x)
		}
	}
	if h == invalidHandle {
		return 0
	}
	return h
}

// ownerAccount maps the ward's player slot to an account id via the player resource.
func ownerAccount(p *manta.Parser, e *manta.Entity) int64 {
	pid, ok := e.GetInt32("m_nPlayerOwnerID")
	if !ok || pid < 0 {
		return 0
	}
	pr := playerResource(p)
	if pr == nil {
		return 0
	}
	if steamID, ok := pr.GetUint64(fmt.Sprintf("m_vecPlayerData.%04d.m_iPlayerSteamID", pid)); ok {
		return accountID(steamID)
	}
	return 0
}

func playerResource(p *manta.Parser) *manta.Entity {
	list := p.FilterEntity(func(e *manta.Entity) bool {
		return e != nil && e.GetClassName() == classPlayerRecord
	})
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

func accountID(steamID uint64) int64 {
	if steamID > steamID64Base {
		return int64(steamID - steamID64Base)
	}
	return int64(steamID)
}

// players lists the ten match participants from the player resource.
func players(p *manta.Parser) []model.PlayerInfo {
	pr := playerResource(p)
	if pr == nil {
		return nil
	}
	var out []model.PlayerInfo
	for slot := 0; slot < 10; slot++ {
		steamID, ok := pr.GetUint64(fmt.Sprintf("m_vecPlayerData.%04d.m_iPlayerSteamID", slot))
		if !ok || steamID == 0 {
			continue
		}
		name, _ := pr.GetString(fmt.Sprintf("m_vecPlayerData.%04d.m_iszPlayerName", slot))
		out = append(out, model.PlayerInfo{AccountID: accountID(steamID), Name: name})
	}
	return out
}
