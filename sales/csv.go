package sales

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/egorairo/ShelfSense/gaps"
)

var ErrInvalidCSV = errors.New("invalid sales CSV")

const defaultMargin = 1.0

var headerAliases = map[string]string{
	"sku_id":   "sku",
	"sku":      "sku",
	"tags":     "tags",
	"qty":      "qty",
	"quantity": "qty",
	"margin":   "margin",
}

// ParseCSV reads a sales export with a header row. Any malformed row fails
// the whole parse; there is no partial result.
func ParseCSV(r io.Reader) ([]gaps.SalesRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := headerAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	for _, required := range []string{"sku", "tags", "qty"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column", ErrInvalidCSV, required)
		}
	}

	records := make([]gaps.SalesRecord, 0)
	for row := 2; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidCSV, row, err)
		}
		if isBlank(fields) {
			continue
		}

		rec, err := parseRow(fields, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidCSV, row, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(fields []string, cols map[string]int) (gaps.SalesRecord, error) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	qty, err := parseNumber(get("qty"))
	if err != nil {
		return gaps.SalesRecord{}, fmt.Errorf("qty %q is not a number", get("qty"))
	}

	margin := defaultMargin
	if m := get("margin"); m != "" {
		margin, err = parseNumber(m)
		if err != nil {
			return gaps.SalesRecord{}, fmt.Errorf("margin %q is not a number", m)
		}
	}

	rec := gaps.SalesRecord{
		SKU:    get("sku"),
		Tags:   gaps.NormalizeTags(strings.Split(get("tags"), ",")),
		Qty:    qty,
		Margin: margin,
	}
	if err := rec.Validate(); err != nil {
		return gaps.SalesRecord{}, err
	}
	return rec, nil
}

// parseNumber accepts only finite values; ParseFloat also takes NaN and Inf.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not finite")
	}
	return v, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
