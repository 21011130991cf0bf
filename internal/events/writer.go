package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeAssetCreated         = "asset.created"
	TypeAssetUpdated         = "asset.updated"
	TypeAssetStatusChanged   = "asset.status_changed"
	TypeAssetMaintenance     = "asset.maintenance"
	TypeAssetLocationChanged = "asset.location_changed"
	TypeAssetAssigned        = "asset.assigned"
	TypeAssetReturned        = "asset.returned"
	TypeAssetDeleted         = "asset.deleted"
	TypeAssetSupportTicket   = "asset.support_ticket"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append writes one event to the per-asset log inside the caller's
// transaction. seq is allocated per asset within the same transaction, so
// the UNIQUE(asset_id, seq) constraint serializes concurrent writers.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, assetID, actorID string, payload EventPayload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq),0)+1 FROM asset_events WHERE asset_id=?`, assetID).Scan(&seq); err != nil {
		return fmt.Errorf("next event seq: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO asset_events(asset_id,seq,ts,type,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		assetID, seq, ts, evtType, actorID, string(data))
	return err
}
