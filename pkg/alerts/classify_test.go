package alerts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ogulcanaydogan/stockwatch/pkg/alerts"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

func settings(warning, critical int) model.ThresholdSettings {
	s := model.DefaultSettings()
	s.WarningThreshold = warning
	s.CriticalThreshold = critical
	return s
}

func product(id string, stock int) model.ProductStockRecord {
	return model.ProductStockRecord{ID: model.ProductID(id), Name: "product " + id, Stock: stock}
}

func TestClassify_Example(t *testing.T) {
	snapshot := []model.ProductStockRecord{product("1", 5), product("2", 10), product("3", 11)}

	got := alerts.Classify(snapshot, settings(10, 5))

	assert.Equal(t, []model.Alert{
		{Type: model.AlertCritical, Product: product("1", 5), Limit: 5},
		{Type: model.AlertWarning, Product: product("2", 10), Limit: 10},
	}, got)
}

func TestClassify_Boundaries(t *testing.T) {
	thresholds := []model.ThresholdSettings{settings(10, 5), settings(1, 0), settings(100, 99), settings(50, 0)}

	for _, s := range thresholds {
		for stock := 0; stock <= s.WarningThreshold+2; stock++ {
			got := alerts.Classify([]model.ProductStockRecord{product("p", stock)}, s)

			switch {
			case stock <= s.CriticalThreshold:
				if assert.Len(t, got, 1) {
					assert.Equal(t, model.AlertCritical, got[0].Type, "stock %d with %+v", stock, s)
					assert.Equal(t, s.CriticalThreshold, got[0].Limit)
				}
			case stock <= s.WarningThreshold:
				if assert.Len(t, got, 1) {
					assert.Equal(t, model.AlertWarning, got[0].Type, "stock %d with %+v", stock, s)
					assert.Equal(t, s.WarningThreshold, got[0].Limit)
				}
			default:
				assert.Empty(t, got, "stock %d with %+v", stock, s)
			}
		}
	}
}

func TestClassify_EmptySnapshot(t *testing.T) {
	got := alerts.Classify(nil, model.DefaultSettings())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClassify_CopiesProduct(t *testing.T) {
	snapshot := []model.ProductStockRecord{product("1", 2)}
	got := alerts.Classify(snapshot, settings(10, 5))

	snapshot[0].Stock = 99
	assert.Equal(t, 2, got[0].Product.Stock)
}

func TestPartition(t *testing.T) {
	all := alerts.Classify([]model.ProductStockRecord{product("1", 1), product("2", 8), product("3", 0)}, settings(10, 5))

	critical, warning := alerts.Partition(all)
	assert.Len(t, critical, 2)
	assert.Len(t, warning, 1)
	assert.Equal(t, model.ProductID("2"), warning[0].Product.ID)
}
