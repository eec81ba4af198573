package alerts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ogulcanaydogan/stockwatch/pkg/alerts"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

func critical(id string, stock int) model.Alert {
	return model.Alert{Type: model.AlertCritical, Product: product(id, stock), Limit: 5}
}

func warning(id string, stock int) model.Alert {
	return model.Alert{Type: model.AlertWarning, Product: product(id, stock), Limit: 10}
}

func ids(list []model.Alert) []model.ProductID {
	out := make([]model.ProductID, 0, len(list))
	for _, a := range list {
		out = append(out, a.Product.ID)
	}
	return out
}

func TestCompare_Idempotent(t *testing.T) {
	sets := [][]model.Alert{
		nil,
		{critical("1", 5)},
		{critical("1", 5), warning("2", 10), warning("3", 7)},
	}

	for _, x := range sets {
		d := alerts.Compare(x, x)
		assert.True(t, d.Empty())
		assert.Empty(t, d.New)
		assert.Empty(t, d.Resolved)
		assert.Empty(t, d.Modified)
	}
}

func TestCompare_FirstRun(t *testing.T) {
	current := []model.Alert{critical("1", 5), warning("2", 10)}

	d := alerts.Compare(nil, current)
	assert.Equal(t, current, d.New)
	assert.Empty(t, d.Resolved)
	assert.Empty(t, d.Modified)
}

func TestCompare_New(t *testing.T) {
	d := alerts.Compare(
		[]model.Alert{critical("1", 5)},
		[]model.Alert{critical("1", 5), warning("2", 10)},
	)
	assert.Equal(t, []model.ProductID{"2"}, ids(d.New))
	assert.Empty(t, d.Resolved)
	assert.Empty(t, d.Modified)
}

func TestCompare_Resolved(t *testing.T) {
	d := alerts.Compare([]model.Alert{critical("1", 5)}, nil)
	assert.Empty(t, d.New)
	assert.Equal(t, []model.ProductID{"1"}, ids(d.Resolved))
	assert.Empty(t, d.Modified)
}

func TestCompare_ModifiedStock(t *testing.T) {
	d := alerts.Compare([]model.Alert{critical("1", 5)}, []model.Alert{critical("1", 2)})
	assert.Empty(t, d.New)
	assert.Empty(t, d.Resolved)
	if assert.Len(t, d.Modified, 1) {
		assert.Equal(t, 2, d.Modified[0].Product.Stock, "modified carries the current alert")
	}
}

func TestCompare_ModifiedSeverityOnly(t *testing.T) {
	// Same stock, different classification after a threshold change
	d := alerts.Compare([]model.Alert{warning("1", 6)}, []model.Alert{critical("1", 6)})
	assert.Equal(t, []model.ProductID{"1"}, ids(d.Modified))
	assert.Equal(t, model.AlertCritical, d.Modified[0].Type)
}

func TestCompare_Mixed(t *testing.T) {
	previous := []model.Alert{critical("1", 5), warning("2", 9), warning("3", 8)}
	current := []model.Alert{critical("1", 5), critical("2", 4), warning("4", 10)}

	d := alerts.Compare(previous, current)
	assert.Equal(t, []model.ProductID{"4"}, ids(d.New))
	assert.Equal(t, []model.ProductID{"3"}, ids(d.Resolved))
	assert.Equal(t, []model.ProductID{"2"}, ids(d.Modified))
	assert.False(t, d.Empty())
}
