package timeline

import (
	"context"
	"encoding/json"
	"fmt"

	"assetline/internal/domain"
	"assetline/internal/events"
	"assetline/internal/repo"
)

// Projector derives an asset's history view from its event log. It never
// writes; the log is the single source of truth.
type Projector struct {
	Repo repo.Repo
}

// Timeline returns newest-first entries for an asset. A positive limit caps
// the result but never splits a run of entries that share a timestamp, so
// events appended by one command stay together.
func (p Projector) Timeline(ctx context.Context, assetID string, limit int) ([]domain.TimelineEntry, error) {
	if _, err := p.Repo.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	evts, err := p.Repo.ListAssetEvents(ctx, assetID)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.TimelineEntry, 0, len(evts))
	for i := len(evts) - 1; i >= 0; i-- {
		entry, ok := p.project(ctx, evts, i)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if limit > 0 && len(entries) > limit {
		cut := limit
		for cut < len(entries) && entries[cut].TS == entries[cut-1].TS {
			cut++
		}
		entries = entries[:cut]
	}
	return entries, nil
}

func (p Projector) project(ctx context.Context, evts []domain.Event, idx int) (domain.TimelineEntry, bool) {
	evt := evts[idx]
	entry := domain.TimelineEntry{
		TS:      evt.TS,
		Seq:     evt.Seq,
		ActorID: evt.ActorID,
	}
	payload := decodePayload(evt.Payload)

	switch evt.Type {
	case events.TypeAssetCreated:
		entry.Type = domain.TimelineCreated
		entry.Status = domain.TimelineCompleted
		entry.Title = "Asset registered"
		if tag, ok := payload["asset_tag"].(string); ok {
			entry.Description = tag
		}
	case events.TypeAssetAssigned:
		entry.Type = domain.TimelineAssigned
		entry.Status = domain.TimelineCompleted
		entry.Title = "Assigned"
		if id, ok := payload["employee_id"].(string); ok && id != "" {
			entry.EmployeeID = &id
			if emp, err := p.Repo.GetEmployee(ctx, id); err == nil {
				entry.Title = "Assigned to " + emp.FullName()
			}
		}
		if id, ok := payload["location_id"].(string); ok && id != "" {
			entry.LocationID = &id
		}
	case events.TypeAssetReturned:
		entry.Type = domain.TimelineReturned
		entry.Status = domain.TimelineCompleted
		entry.Title = "Returned"
		if id, ok := payload["employee_id"].(string); ok && id != "" {
			entry.EmployeeID = &id
			if emp, err := p.Repo.GetEmployee(ctx, id); err == nil {
				entry.Title = "Returned by " + emp.FullName()
			}
		}
		if forced, ok := payload["forced"].(bool); ok && forced {
			entry.Description = "closed by administrative status change"
		}
	case events.TypeAssetMaintenance:
		entry.Type = domain.TimelineMaintenance
		entry.Title = "Under maintenance"
		if maintenanceOpen(evts, idx) {
			entry.Status = domain.TimelineInProgress
		} else {
			entry.Status = domain.TimelinePending
		}
		if from, ok := payload["from"].(string); ok {
			entry.Description = fmt.Sprintf("moved from %s", from)
		}
	case events.TypeAssetStatusChanged:
		entry.Type = domain.TimelineStatusChanged
		entry.Status = domain.TimelineCompleted
		from, _ := payload["from"].(string)
		to, _ := payload["to"].(string)
		if to == string(domain.StatusLost) {
			entry.Status = domain.TimelineWarning
		}
		entry.Title = "Status changed"
		entry.Description = fmt.Sprintf("%s to %s", from, to)
	case events.TypeAssetLocationChanged:
		entry.Type = domain.TimelineLocationChanged
		entry.Status = domain.TimelineCompleted
		entry.Title = "Location changed"
		if id, ok := payload["to"].(string); ok && id != "" {
			entry.LocationID = &id
			if loc, err := p.Repo.GetLocation(ctx, id); err == nil {
				entry.Description = fmt.Sprintf("%s floor %d %s", loc.Building, loc.Floor, loc.Room)
			}
		}
	case events.TypeAssetUpdated:
		entry.Type = domain.TimelineUpdated
		entry.Status = domain.TimelineCompleted
		entry.Title = "Details updated"
		if fields, ok := payload["fields"].([]any); ok {
			entry.Description = joinFields(fields)
		}
	case events.TypeAssetSupportTicket:
		entry.Type = domain.TimelineSupportTicket
		entry.Status = domain.TimelineCompleted
		entry.Title = "Support ticket linked"
		if ticket, ok := payload["ticket_number"].(string); ok {
			entry.TicketNumber = ticket
			entry.Title = "Support ticket " + ticket
		}
		if note, ok := payload["note"].(string); ok {
			entry.Description = note
		}
	case events.TypeAssetDeleted:
		entry.Type = domain.TimelineDeleted
		entry.Status = domain.TimelineError
		entry.Title = "Asset deleted"
	default:
		return entry, false
	}
	return entry, true
}

// maintenanceOpen reports whether a maintenance event at idx is still the
// asset's current state: no later event has moved the status elsewhere.
func maintenanceOpen(evts []domain.Event, idx int) bool {
	for i := idx + 1; i < len(evts); i++ {
		switch evts[i].Type {
		case events.TypeAssetStatusChanged, events.TypeAssetMaintenance,
			events.TypeAssetAssigned, events.TypeAssetDeleted:
			return false
		}
	}
	return true
}

func decodePayload(raw string) map[string]any {
	payload := map[string]any{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &payload)
	}
	return payload
}

func joinFields(fields []any) string {
	out := ""
	for _, f := range fields {
		s, ok := f.(string)
		if !ok {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += s
	}
	return out
}
