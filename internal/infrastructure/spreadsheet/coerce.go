package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cell values arrive as strings from excelize regardless of the cell type,
// with whatever whitespace the author left in. These helpers normalize the
// spellings end users actually produce.

// ParseBool accepts the TRUE/Yes/Y/1 family of spellings
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", value)
}

// ParseInt parses an integer tolerating surrounding whitespace and a
// trailing decimal point produced by numeric cell formatting
func ParseInt(value string) (int, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimSuffix(v, ".0")
	v = strings.TrimSuffix(v, ".00")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", value)
	}
	return n, nil
}

// ParseDecimal parses a decimal number tolerating surrounding whitespace
func ParseDecimal(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", value)
	}
	return d, nil
}

// dateLayouts are tried in order; the first two are what the templates ask
// for, the rest cover what spreadsheets tend to emit anyway
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01-02-06",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date cell
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date: %q", value)
}
