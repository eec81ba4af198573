package notify

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

// Surface renders notification records. Calls arrive with the Manager's lock
// held, so implementations must not call back into the Manager from them.
type Surface interface {
	// Show displays a newly created record.
	Show(rec model.NotificationRecord)

	// UpdateState moves a displayed record to a new lifecycle state.
	UpdateState(id string, state model.NotificationState)
}

// Board is an in-memory surface holding the currently visible records.
type Board struct {
	mu      sync.RWMutex
	records map[string]model.NotificationRecord
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{records: make(map[string]model.NotificationRecord)}
}

func (b *Board) Show(rec model.NotificationRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.ID] = rec
}

func (b *Board) UpdateState(id string, state model.NotificationState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[id]
	if !ok {
		return
	}
	if state == model.StateRemoved {
		delete(b.records, id)
		return
	}
	rec.State = state
	b.records[id] = rec
}

// List returns the visible records, oldest first.
func (b *Board) List() []model.NotificationRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := make([]model.NotificationRecord, 0, len(b.records))
	for _, rec := range b.records {
		list = append(list, rec)
	}
	sortRecords(list)
	return list
}

// Console writes one line per notification event.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a surface writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Show(rec model.NotificationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s [%s] %s: %s\n",
		rec.CreatedAt.Format("15:04:05"), strings.ToUpper(string(rec.Severity)), rec.Title, rec.Message)
}

func (c *Console) UpdateState(id string, state model.NotificationState) {
	if state != model.StateRemoved {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "         notification %s cleared\n", id)
}

func sortRecords(list []model.NotificationRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return severityRank(list[i].Severity) > severityRank(list[j].Severity)
	})
}

func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 2
	case model.SeverityWarning:
		return 1
	default:
		return 0
	}
}
