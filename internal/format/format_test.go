package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
)

func usFormatter() *Formatter {
	f := New(config.Formatting{CurrencySymbol: "$", DateFormat: "%m/%d/%Y", NumberFormat: ",.2f"})
	f.Now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestCurrency(t *testing.T) {
	f := usFormatter()
	tests := []struct {
		in   string
		want string
	}{
		{"3256.2", "$3,256.20"},
		{"0", "$0.00"},
		{"15", "$15.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-42.5", "-$42.50"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		t.Run("Should format "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Currency(decimal.RequireFromString(tt.in)))
		})
	}

	t.Run("Should honour a spec without grouping", func(t *testing.T) {
		g := New(config.Formatting{CurrencySymbol: "€", NumberFormat: ".3f", DateFormat: "%Y"})
		assert.Equal(t, "€1234.500", g.Currency(decimal.RequireFromString("1234.5")))
	})
}

func TestParseNumberFormat(t *testing.T) {
	tests := []struct {
		spec     string
		places   int
		grouping bool
	}{
		{",.2f", 2, true},
		{".0f", 0, false},
		{",.4f", 4, true},
		{"", 2, true},
		{"garbage", 2, false},
	}
	for _, tt := range tests {
		t.Run("Should parse "+tt.spec, func(t *testing.T) {
			places, grouping := ParseNumberFormat(tt.spec)
			assert.Equal(t, tt.places, places)
			assert.Equal(t, tt.grouping, grouping)
		})
	}
}

func TestPercentAndQuantity(t *testing.T) {
	f := usFormatter()
	t.Run("Should print one decimal place for rates and trim quantities", func(t *testing.T) {
		assert.Equal(t, "8.0%", f.Percent(decimal.NewFromFloat(0.08)))
		assert.Equal(t, "7.3%", f.Percent(decimal.NewFromFloat(0.0725)))
		assert.Equal(t, "0.0%", f.Percent(decimal.Zero))
		assert.Equal(t, "40", f.Quantity(decimal.RequireFromString("40")))
		assert.Equal(t, "0.5", f.Quantity(decimal.RequireFromString("0.50")))
	})
}

func TestStrftimeLayout(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"%m/%d/%Y", "01/02/2006"},
		{"%Y-%m-%d", "2006-01-02"},
		{"%B %-d, %Y", "January 2, 2006"},
		{"%d %b %y %H:%M", "02 Jan 06 15:04"},
		{"100%% %Q", "100% %Q"},
		{"", "2006-01-02"},
	}
	for _, tt := range tests {
		t.Run("Should convert "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StrftimeLayout(tt.in))
		})
	}
}

func TestDate(t *testing.T) {
	f := usFormatter()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"iso", "2024-01-15", "01/15/2024"},
		{"iso datetime", "2024-01-15 00:00:00", "01/15/2024"},
		{"us", "1/5/2024", "01/05/2024"},
		{"excel serial", "45292", "01/01/2024"},
		{"blank uses today", "  ", "03/09/2024"},
		{"unparseable passes through", "next tuesday", "next tuesday"},
	}
	for _, tt := range tests {
		t.Run("Should format "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Date(tt.raw))
		})
	}

	t.Run("Should use the fallback for blank cells only", func(t *testing.T) {
		later := func() time.Time { return time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC) }
		assert.Equal(t, "03/11/2024", f.DateOr("", later))
		assert.Equal(t, "02/01/2024", f.DateOr("2024-02-01", later))
	})
}
