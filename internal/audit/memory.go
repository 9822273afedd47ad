package audit

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// MemoryLog keeps audit rows in process for the memory storage driver.
type MemoryLog struct {
	mu   sync.Mutex
	rows []models.AuditLog
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Write(_ context.Context, ev Event) error {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = append(m.rows, models.AuditLog{
		ID:         uint(len(m.rows) + 1),
		ProviderID: ev.ProviderID,
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Metadata:   metaJSON,
		CreatedAt:  ev.At,
	})
	return nil
}

func (m *MemoryLog) List(_ context.Context, f Filter) ([]models.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.AuditLog
	for _, r := range m.rows {
		switch {
		case f.ProviderID != "" && r.ProviderID != f.ProviderID:
		case f.Action != "" && r.Action != f.Action:
		case f.Entity != "" && r.Entity != f.Entity:
		case !f.From.IsZero() && r.CreatedAt.Before(f.From):
		case !f.To.IsZero() && !r.CreatedAt.Before(f.To):
		default:
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := f.offset()
	if start >= len(matched) {
		return []models.AuditLog{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
