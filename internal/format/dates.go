package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// strftimeTokens maps strftime directives to Go layout components.
var strftimeTokens = map[string]string{
	"%Y":  "2006",
	"%y":  "06",
	"%m":  "01",
	"%-m": "1",
	"%d":  "02",
	"%-d": "2",
	"%e":  "_2",
	"%B":  "January",
	"%b":  "Jan",
	"%A":  "Monday",
	"%a":  "Mon",
	"%H":  "15",
	"%I":  "03",
	"%M":  "04",
	"%S":  "05",
	"%p":  "PM",
	"%Z":  "MST",
	"%z":  "-0700",
	"%%":  "%",
}

// StrftimeLayout converts a strftime format into a Go time layout.
// Unknown directives are copied through unchanged. An empty format yields
// the ISO date layout.
func StrftimeLayout(format string) string {
	if format == "" {
		return "2006-01-02"
	}
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '%' && i+1 < len(format) {
			if i+2 < len(format) && format[i+1] == '-' {
				if goFmt, ok := strftimeTokens[format[i:i+3]]; ok {
					b.WriteString(goFmt)
					i += 3
					continue
				}
			}
			if goFmt, ok := strftimeTokens[format[i:i+2]]; ok {
				b.WriteString(goFmt)
				i += 2
				continue
			}
		}
		b.WriteByte(format[i])
		i++
	}
	return b.String()
}

// inputLayouts are tried in order when reading a date cell.
var inputLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
	"01/02/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate reads a date cell in any of the common layouts, or as an Excel
// serial day number.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
