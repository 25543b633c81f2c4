package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pable/go-dota-wards/internal/model"
)

// MatchExists returns true if a match with the given id is already stored.
func (db *DB) MatchExists(matchID int64) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE match_id = ?", matchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch inserts a match record. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertMatch(s model.MatchSummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO matches(match_id, source, match_date, radiant_team_id, dire_team_id)
		VALUES (?, ?, ?, ?, ?)`,
		s.MatchID, s.Source, s.MatchDate, s.RadiantTeamID, s.DireTeamID,
	)
	return err
}

// ReplacePlacements stores a match's placements in a transaction, dropping any
// placements previously stored for the same match.
func (db *DB) ReplacePlacements(matchID int64, placements []model.Placement) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM placements WHERE match_id = ?", matchID); err != nil {
		return fmt.Errorf("clear placements: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO placements(
			match_id, kind, x, y, game_time, side, team_id, account_id, lifetime
		) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range placements {
		_, err = stmt.Exec(
			matchID, string(p.Kind), p.Pos.X, p.Pos.Y, p.Time,
			p.Side.String(), p.TeamID, p.AccountID, p.Lifetime,
		)
		if err != nil {
			return fmt.Errorf("insert placement for match %d: %w", matchID, err)
		}
	}
	return tx.Commit()
}

// UpsertTeams records team display names.
func (db *DB) UpsertTeams(teams []model.TeamInfo) error {
	for _, t := range teams {
		if t.ID == 0 {
			continue
		}
		if _, err := db.conn.Exec("INSERT OR REPLACE INTO teams(team_id, name) VALUES (?, ?)", t.ID, t.Name); err != nil {
			return fmt.Errorf("upsert team %d: %w", t.ID, err)
		}
	}
	return nil
}

// UpsertPlayers records player display names.
func (db *DB) UpsertPlayers(players []model.PlayerInfo) error {
	for _, p := range players {
		if p.AccountID == 0 {
			continue
		}
		if _, err := db.conn.Exec("INSERT OR REPLACE INTO players(account_id, name) VALUES (?, ?)", p.AccountID, p.Name); err != nil {
			return fmt.Errorf("upsert player %d: %w", p.AccountID, err)
		}
	}
	return nil
}

// ListMatches returns all stored matches with their ward counts, newest first.
func (db *DB) ListMatches() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`
		SELECT m.match_id, m.source, m.match_date, m.radiant_team_id, m.dire_team_id,
			COALESCE(SUM(CASE WHEN p.kind = 'observer' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.kind = 'sentry' THEN 1 ELSE 0 END), 0)
		FROM matches m
		LEFT JOIN placements p ON p.match_id = m.match_id
		GROUP BY m.match_id
		ORDER BY m.match_date DESC, m.match_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		var s model.MatchSummary
		if err := rows.Scan(&s.MatchID, &s.Source, &s.MatchDate, &s.RadiantTeamID, &s.DireTeamID,
			&s.Observers, &s.Sentries); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatch returns a single match summary, or nil if it is not stored.
func (db *DB) GetMatch(matchID int64) (*model.MatchSummary, error) {
	var s model.MatchSummary
	err := db.conn.QueryRow(`
		SELECT m.match_id, m.source, m.match_date, m.radiant_team_id, m.dire_team_id,
			COALESCE(SUM(CASE WHEN p.kind = 'observer' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN p.kind = 'sentry' THEN 1 ELSE 0 END), 0)
		FROM matches m
		LEFT JOIN placements p ON p.match_id = m.match_id
		WHERE m.match_id = ?
		GROUP BY m.match_id`, matchID).
		Scan(&s.MatchID, &s.Source, &s.MatchDate, &s.RadiantTeamID, &s.DireTeamID, &s.Observers, &s.Sentries)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteMatch removes a match and its placements.
func (db *DB) DeleteMatch(matchID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM placements WHERE match_id = ?", matchID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM matches WHERE match_id = ?", matchID); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadPlacements returns stored placements, optionally restricted to the given
// match ids (nil or empty = every match).
func (db *DB) LoadPlacements(matchIDs []int64) ([]model.Placement, error) {
	query := `
		SELECT match_id, kind, x, y, game_time, side, team_id, account_id, lifetime
		FROM placements`
	args := make([]any, 0, len(matchIDs))
	if len(matchIDs) > 0 {
		query += " WHERE match_id IN (" + placeholders(len(matchIDs)) + ")"
		for _, id := range matchIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY match_id, game_time, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Placement
	for rows.Next() {
		var p model.Placement
		var kind, side string
		if err := rows.Scan(&p.MatchID, &kind, &p.Pos.X, &p.Pos.Y, &p.Time, &side,
			&p.TeamID, &p.AccountID, &p.Lifetime); err != nil {
			return nil, err
		}
		p.Kind = model.WardKind(kind)
		p.Side = model.ParseSide(side)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Teams returns every stored team name.
func (db *DB) Teams() ([]model.TeamInfo, error) {
	rows, err := db.conn.Query("SELECT team_id, name FROM teams ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TeamInfo
	for rows.Next() {
		var t model.TeamInfo
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Players returns every stored player name.
func (db *DB) Players() ([]model.PlayerInfo, error) {
	rows, err := db.conn.Query("SELECT account_id, name FROM players ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PlayerInfo
	for rows.Next() {
		var p model.PlayerInfo
		if err := rows.Scan(&p.AccountID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary read query and returns column names and rows
// rendered as strings.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
