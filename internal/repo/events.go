package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"assetline/internal/domain"
)

const eventColumns = `id,asset_id,seq,ts,type,actor_id,payload_json`

func scanEvent(row rowScanner) (domain.Event, error) {
	var e domain.Event
	var payload sql.NullString
	err := row.Scan(&e.ID, &e.AssetID, &e.Seq, &e.TS, &e.Type, &e.ActorID, &payload)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if payload.Valid {
		e.Payload = payload.String
	}
	return e, nil
}

// ListAssetEvents returns the full event log of one asset ordered by seq.
func (r Repo) ListAssetEvents(ctx context.Context, assetID string) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+eventColumns+` FROM asset_events WHERE asset_id=? ORDER BY seq ASC`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

type EventFilters struct {
	AssetID string
	Type    string
	ActorID string
	Limit   int
	Cursor  int64
}

// LatestEvents returns events across assets, newest first, with id cursor paging.
func (r Repo) LatestEvents(ctx context.Context, f EventFilters) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.AssetID != "" {
		clauses = append(clauses, "asset_id=?")
		args = append(args, f.AssetID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.ActorID != "" {
		clauses = append(clauses, "actor_id=?")
		args = append(args, f.ActorID)
	}
	if f.Cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Cursor)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + eventColumns + ` FROM asset_events ` + where + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventsAfter returns events with IDs greater than the cursor in ascending order.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+eventColumns+` FROM asset_events WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the most recent event ID.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM asset_events`).Scan(&id)
	return id, err
}

// UpsertConfig stores the org config YAML.
func (r Repo) UpsertConfig(ctx context.Context, orgID, yamlText, updatedAt string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO configs(org_id,yaml,updated_at) VALUES (?,?,?)
ON CONFLICT(org_id) DO UPDATE SET yaml=excluded.yaml, updated_at=excluded.updated_at`, orgID, yamlText, updatedAt)
	return err
}

// SingleConfig returns the stored config when exactly one org exists.
func (r Repo) SingleConfig(ctx context.Context) (string, string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT org_id, yaml FROM configs LIMIT 2`)
	if err != nil {
		return "", "", err
	}
	defer rows.Close()
	var orgID, text string
	count := 0
	for rows.Next() {
		count++
		if count > 1 {
			return "", "", errors.New("multiple org configs stored; specify org explicitly")
		}
		if err := rows.Scan(&orgID, &text); err != nil {
			return "", "", err
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}
	if count == 0 {
		return "", "", ErrNotFound
	}
	return orgID, text, nil
}

// GetConfigYAML returns the stored org config YAML.
func (r Repo) GetConfigYAML(ctx context.Context, orgID string) (string, error) {
	var text string
	err := r.DB.QueryRowContext(ctx, `SELECT yaml FROM configs WHERE org_id=?`, orgID).Scan(&text)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return text, err
}
