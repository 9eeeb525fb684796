// Package csvimport parses bulk product uploads. Input is CSV, plain or
// gzip-compressed, with a header row mapping columns to product fields.
// Parsing stops at structural problems only; per-row business errors are
// reported by the bulk service so one bad row never sinks the batch.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"inventra/internal/core/apperror"
	"inventra/internal/domain/product"
)

// MaxRows bounds a single upload.
const MaxRows = 10000

var gzipMagic = []byte{0x1f, 0x8b}

// headerAliases maps accepted column headers (lowercased) to canonical
// field names. Both API-style and spreadsheet-style headers work.
var headerAliases = map[string]string{
	"productid":      "sku",
	"product_id":     "sku",
	"sku":            "sku",
	"name":           "name",
	"product name":   "name",
	"category":       "category",
	"price":          "price",
	"quantity":       "quantity",
	"unit":           "unit",
	"thresholdvalue": "threshold",
	"threshold":      "threshold",
	"expirydate":     "expiry",
	"expiry_date":    "expiry",
	"expiry date":    "expiry",
	"supplier":       "supplier",
	"description":    "description",
}

// Read parses an upload into bulk rows. Gzip input is detected by the
// magic bytes, so clients may send either encoding without a flag.
func Read(r io.Reader) ([]product.BulkRow, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, apperror.NewValidation("cannot read upload").WithCause(err)
	}
	var src io.Reader = br
	if len(head) == 2 && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, apperror.NewValidation("invalid gzip stream").WithCause(err)
		}
		defer gz.Close()
		src = gz
	}

	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperror.NewValidation("upload is empty")
		}
		return nil, apperror.NewValidation("invalid CSV header").WithCause(err)
	}

	fields := make([]string, len(header))
	known := 0
	for i, col := range header {
		name := headerAliases[strings.ToLower(strings.TrimSpace(col))]
		fields[i] = name
		if name != "" {
			known++
		}
	}
	if known == 0 {
		return nil, apperror.NewValidation("no recognized columns in header")
	}

	rows := make([]product.BulkRow, 0)
	for lineNo := 2; ; lineNo++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("invalid CSV on line %d", lineNo)).
				WithCause(err)
		}
		if len(rows) >= MaxRows {
			return nil, apperror.NewValidation("too many rows").
				WithDetail("maxRows", MaxRows)
		}

		var row product.BulkRow
		for i, value := range record {
			if i >= len(fields) {
				break
			}
			value = strings.TrimSpace(value)
			switch fields[i] {
			case "sku":
				row.SKU = value
			case "name":
				row.Name = value
			case "category":
				row.Category = value
			case "price":
				row.Price = value
			case "quantity":
				row.Quantity = value
			case "unit":
				row.Unit = value
			case "threshold":
				row.ThresholdValue = value
			case "expiry":
				row.ExpiryDate = value
			case "supplier":
				row.Supplier = value
			case "description":
				row.Description = value
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
