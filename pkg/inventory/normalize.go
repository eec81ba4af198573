package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

// Field name precedence, first present non-null key wins.
var (
	IDKeys    = []string{"id", "_id", "product_id"}
	NameKeys  = []string{"name", "nome", "title"}
	SKUKeys   = []string{"sku", "codigo", "code"}
	StockKeys = []string{"stock", "estoque", "quantidade", "quantity"}
)

// envelopeKeys are the object keys a product list may be wrapped in.
var envelopeKeys = []string{"data", "products", "items", "results"}

// totalKeys are envelope keys reporting the full inventory size.
var totalKeys = []string{"total", "totalCount", "total_count"}

// Normalize converts one raw product object into a canonical record.
// It returns ErrMissingID when no identifier exists. When the stock value is
// missing or unparseable the record carries stock 0 and a *MalformedRecord
// is returned alongside it.
func Normalize(raw map[string]any) (model.ProductStockRecord, error) {
	var rec model.ProductStockRecord

	idValue, _, ok := coalesce(raw, IDKeys)
	if !ok {
		return rec, ErrMissingID
	}
	id, ok := formatID(idValue)
	if !ok {
		return rec, ErrMissingID
	}
	rec.ID = id

	if v, _, ok := coalesce(raw, NameKeys); ok {
		rec.Name = asString(v)
	}
	if v, _, ok := coalesce(raw, SKUKeys); ok {
		rec.SKU = asString(v)
	}

	v, key, ok := coalesce(raw, StockKeys)
	if !ok {
		return rec, &MalformedRecord{ID: id, Field: "stock", Reason: "missing"}
	}
	stock, err := parseStock(v)
	if err != nil {
		return rec, &MalformedRecord{ID: id, Field: key, Value: v, Reason: err.Error()}
	}
	rec.Stock = stock

	return rec, nil
}

// normalizeDocument extracts the product list from a decoded payload and
// normalizes every entry. Individual bad entries never fail the snapshot.
func normalizeDocument(doc any, logger *slog.Logger) ([]model.ProductStockRecord, error) {
	items, total, err := extractItems(doc, 0)
	if err != nil {
		return nil, err
	}
	if total > len(items) {
		return nil, fmt.Errorf("partial snapshot: got %d of %d products", len(items), total)
	}

	records := make([]model.ProductStockRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			logger.Warn("skipping non-object product entry", "index", i, "type", fmt.Sprintf("%T", item))
			continue
		}

		rec, err := Normalize(obj)
		var malformed *MalformedRecord
		switch {
		case err == nil:
		case errors.As(err, &malformed):
			logger.Warn("malformed product record, stock set to 0",
				"product", malformed.ID,
				"field", malformed.Field,
				"reason", malformed.Reason,
			)
		default:
			logger.Warn("skipping product entry", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func extractItems(doc any, depth int) ([]any, int, error) {
	switch v := doc.(type) {
	case []any:
		return v, 0, nil
	case map[string]any:
		if depth > 1 {
			break
		}
		for _, key := range envelopeKeys {
			inner, ok := v[key]
			if !ok {
				continue
			}
			items, total, err := extractItems(inner, depth+1)
			if err != nil {
				continue
			}
			if total == 0 {
				total = envelopeTotal(v)
			}
			return items, total, nil
		}
	}
	return nil, 0, fmt.Errorf("no product list in payload of type %T", doc)
}

func envelopeTotal(envelope map[string]any) int {
	v, _, ok := coalesce(envelope, totalKeys)
	if !ok {
		return 0
	}
	n, err := parseStock(v)
	if err != nil {
		return 0
	}
	return n
}

func coalesce(raw map[string]any, keys []string) (any, string, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, key, true
		}
	}
	return nil, "", false
}

func formatID(v any) (model.ProductID, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		s = decimal.NewFromFloat(x).String()
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	default:
		return "", false
	}
	return model.ProductID(s), s != ""
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

// parseStock accepts integers, floats and numeric strings. Fractions are
// truncated toward zero.
func parseStock(v any) (int, error) {
	var (
		d   decimal.Decimal
		err error
	)

	switch x := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("not a finite number")
		}
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case uint64:
		d, err = decimal.NewFromString(strconv.FormatUint(x, 10))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("negative stock")
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("stock out of range")
	}
	return int(d.IntPart()), nil
}
