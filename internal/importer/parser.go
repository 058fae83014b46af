package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"order-desk/internal/model"

	"github.com/shopspring/decimal"
)

const dateOnly = "2006-01-02"

var requiredColumns = []string{"code", "name", "discount_type", "discount_value", "start_date", "end_date"}

// RowError is a row that could not be turned into a voucher request.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Reader streams voucher requests out of a CSV document with a header row.
// Columns may appear in any order; unknown columns are ignored.
type Reader struct {
	csv   *csv.Reader
	index map[string]int
}

// NewReader reads the header row of r.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("import file is empty")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("header is missing required column %q", col)
		}
	}

	return &Reader{csv: cr, index: index}, nil
}

// Next returns the next voucher request. It returns io.EOF at the end of the
// input and a *RowError for a row that is malformed; reading may continue
// after a *RowError.
func (r *Reader) Next() (*model.VoucherRequest, error) {
	record, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &RowError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return nil, err
	}

	line, _ := r.csv.FieldPos(0)
	req, err := r.parse(record)
	if err != nil {
		return nil, &RowError{Line: line, Err: err}
	}
	return req, nil
}

func (r *Reader) field(record []string, name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (r *Reader) parse(record []string) (*model.VoucherRequest, error) {
	req := &model.VoucherRequest{
		Code:         r.field(record, "code"),
		Name:         r.field(record, "name"),
		Description:  r.field(record, "description"),
		DiscountType: model.DiscountType(strings.ToLower(r.field(record, "discount_type"))),
	}

	var err error
	if req.DiscountValue, err = parseDecimal(r.field(record, "discount_value"), "discount_value"); err != nil {
		return nil, err
	}
	if v := r.field(record, "min_order_amount"); v != "" {
		if req.MinOrderAmount, err = parseDecimal(v, "min_order_amount"); err != nil {
			return nil, err
		}
	}
	if v := r.field(record, "max_discount"); v != "" {
		d, err := parseDecimal(v, "max_discount")
		if err != nil {
			return nil, err
		}
		req.MaxDiscount = &d
	}
	if v := r.field(record, "free_shipping"); v != "" {
		if req.FreeShipping, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("free_shipping: %q is not a boolean", v)
		}
	}
	if v := r.field(record, "usage_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("usage_limit: %q is not an integer", v)
		}
		req.UsageLimit = &n
	}
	if v := r.field(record, "is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("is_active: %q is not a boolean", v)
		}
		req.IsActive = &active
	}
	if req.StartDate, err = parseTime(r.field(record, "start_date"), "start_date", false); err != nil {
		return nil, err
	}
	if req.EndDate, err = parseTime(r.field(record, "end_date"), "end_date", true); err != nil {
		return nil, err
	}

	return req, nil
}

func parseDecimal(v, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", column, v)
	}
	return d, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates in UTC. A plain end
// date covers the whole day.
func parseTime(v, column string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %q is not a date", column, v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
