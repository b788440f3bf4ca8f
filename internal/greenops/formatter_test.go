package greenops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{18248, "18,248"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.n))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name      string
		f         float64
		precision int
		want      string
	}{
		{"two decimals", 1234.567, 2, "1,234.57"},
		{"three decimals", 16.04, 3, "16.040"},
		{"zero precision rounds", 1234.5, 0, "1,235"},
		{"small negative", -0.25, 2, "-0.25"},
		{"large", 1234567.891, 1, "1,234,567.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.f, tt.precision))
		})
	}
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "16.040 kg", FormatKg(16.04))
	assert.Equal(t, "0.000 kg", FormatKg(0))
}

func TestFormatLarge(t *testing.T) {
	assert.Equal(t, "999,999", FormatLarge(999_999))
	assert.Equal(t, "~1.5 million", FormatLarge(1_500_000))
	assert.Equal(t, "~1.5 billion", FormatLarge(1_500_000_000))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+12.5%", FormatPercent(12.5))
	assert.Equal(t, "-25.0%", FormatPercent(-25))
}

func TestNormalizeToKg(t *testing.T) {
	tests := []struct {
		value   float64
		unit    string
		want    float64
		wantErr error
	}{
		{1500, "g", 1.5, nil},
		{1.5, "KG", 1.5, nil},
		{2, "tCO2e", 2000, nil},
		{10, "lb", 4.53592, nil},
		{1, "", 0, ErrInvalidUnit},
		{1, "co2e", 0, ErrInvalidUnit},
		{-1, "kg", 0, ErrNegativeValue},
	}
	for _, tt := range tests {
		got, err := NormalizeToKg(tt.value, tt.unit)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "%v %s", tt.value, tt.unit)
			continue
		}
		assert.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestConvertFromKg(t *testing.T) {
	got, err := ConvertFromKg(2500, "t")
	assert.NoError(t, err)
	assert.InDelta(t, 2.5, got, 1e-12)

	_, err = ConvertFromKg(1, "furlong")
	assert.ErrorIs(t, err, ErrInvalidUnit)

	assert.True(t, IsRecognizedUnit("kgCO2e"))
	assert.False(t, IsRecognizedUnit("oz"))
}
