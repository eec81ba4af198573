package alerts

import "github.com/ogulcanaydogan/stockwatch/pkg/model"

// Diff partitions the change between two consecutive alert sets.
type Diff struct {
	// New holds current alerts whose product had no previous alert.
	New []model.Alert `json:"new"`
	// Resolved holds previous alerts whose product no longer alerts.
	Resolved []model.Alert `json:"resolved"`
	// Modified holds current alerts whose stock or type changed.
	Modified []model.Alert `json:"modified"`
}

// Empty reports whether the diff carries nothing to surface.
func (d Diff) Empty() bool {
	return len(d.New) == 0 && len(d.Resolved) == 0 && len(d.Modified) == 0
}

// Compare diffs two alert sets keyed by product id. With an empty previous
// set every current alert is new.
func Compare(previous, current []model.Alert) Diff {
	d := Diff{
		New:      make([]model.Alert, 0),
		Resolved: make([]model.Alert, 0),
		Modified: make([]model.Alert, 0),
	}

	before := make(map[model.ProductID]model.Alert, len(previous))
	for _, a := range previous {
		before[a.Product.ID] = a
	}

	seen := make(map[model.ProductID]struct{}, len(current))
	for _, a := range current {
		seen[a.Product.ID] = struct{}{}

		old, ok := before[a.Product.ID]
		switch {
		case !ok:
			d.New = append(d.New, a)
		case old.Product.Stock != a.Product.Stock || old.Type != a.Type:
			d.Modified = append(d.Modified, a)
		}
	}

	for _, a := range previous {
		if _, ok := seen[a.Product.ID]; !ok {
			d.Resolved = append(d.Resolved, a)
		}
	}

	return d
}
