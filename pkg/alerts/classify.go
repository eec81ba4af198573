package alerts

import "github.com/ogulcanaydogan/stockwatch/pkg/model"

// Classify flags every product at or below a threshold. The critical test
// runs first, so a product matching both thresholds is only critical.
// Products above the warning threshold produce no alert.
func Classify(snapshot []model.ProductStockRecord, settings model.ThresholdSettings) []model.Alert {
	alerts := make([]model.Alert, 0)
	for _, product := range snapshot {
		switch {
		case product.Stock <= settings.CriticalThreshold:
			alerts = append(alerts, model.Alert{
				Type:    model.AlertCritical,
				Product: product,
				Limit:   settings.CriticalThreshold,
			})
		case product.Stock <= settings.WarningThreshold:
			alerts = append(alerts, model.Alert{
				Type:    model.AlertWarning,
				Product: product,
				Limit:   settings.WarningThreshold,
			})
		}
	}
	return alerts
}

// Partition splits alerts by type, preserving order.
func Partition(alerts []model.Alert) (critical, warning []model.Alert) {
	for _, a := range alerts {
		switch a.Type {
		case model.AlertCritical:
			critical = append(critical, a)
		case model.AlertWarning:
			warning = append(warning, a)
		}
	}
	return critical, warning
}
