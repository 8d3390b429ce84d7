package roster

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Serial values in this window decode to dates between 1954 and 2078, which
// keeps plain years and employee codes from being mistaken for serial dates.
const (
	minDateSerial = 20000
	maxDateSerial = 80000
)

// dateLayouts are tried in order against textual date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01/02/06",
	"1-2-2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
}

// Amount parses a numeric cell, tolerating a leading currency marker and
// comma or space grouping ("$1,234.50" parses as 1234.5).
func Amount(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "$")
	value = strings.ReplaceAll(value, ",", "")
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Date parses a date cell, accepting both textual dates and spreadsheet serial
// encodings, and returns it in ISO form (2006-01-02).
func Date(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	// Spreadsheet exports often hand over the raw serial number.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= minDateSerial && serial <= maxDateSerial {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("2006-01-02"), true
			}
		}
		return "", false
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.Format("2006-01-02"), true
	}
	return "", false
}
