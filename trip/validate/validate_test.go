package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDigits(t *testing.T) {
	assert.Equal(t, "12345", NormalizeDigits("１２３４５"))
	assert.Equal(t, "a1b2", NormalizeDigits("a１b2"))
	assert.Equal(t, "", NormalizeDigits(""))
	assert.Equal(t, "東京", NormalizeDigits("東京"))
}

func TestDateTime(t *testing.T) {
	tests := []struct {
		in          string
		requireTime bool
		want        bool
	}{
		{"2025/12/26 1430", false, true},
		{"2025/12/26", false, true},
		{"2025/13/01 1000", false, false},
		{"invalid", false, false},
		{"", false, false},
		{"2025/12/26", true, false},
		{"2025/12/26 1430", true, true},
		{"２０２５/１/２ ９３０", true, true},
		{"2025/1/2 930", false, true},
		{"2025/2/31 0000", false, true},
		{"2025/1/32 1000", false, false},
		{"2025/1/0", false, false},
		{"2025/1/2 2400", false, false},
		{"2025/1/2 1260", false, false},
		{"2025/1/2 14:30", false, false},
		{"  2025/1/2 1430  ", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DateTime(tt.in, tt.requireTime))
		})
	}
}

func TestDate(t *testing.T) {
	assert.True(t, Date("2025/1/2"))
	assert.True(t, Date("２０２５/１２/３１"))
	assert.False(t, Date("2025/1/2 1000"))
	assert.False(t, Date("2025/00/10"))
}

func TestNormalizeDateTime(t *testing.T) {
	assert.Equal(t, "2025/01/02 09:30", NormalizeDateTime("2025/1/2 930"))
	assert.Equal(t, "2025/12/26 14:30", NormalizeDateTime("２０２５/１２/２６ １４３０"))
	assert.Equal(t, "not a date", NormalizeDateTime(" not a date "))
	assert.Equal(t, "2025/1/2", NormalizeDateTime("2025/1/2"))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2025/01/02", NormalizeDate("2025/1/2"))
	assert.Equal(t, "x", NormalizeDate("x"))
}

func TestNumber(t *testing.T) {
	assert.True(t, Number("123"))
	assert.True(t, Number("123.45"))
	assert.True(t, Number("１２３"))
	assert.False(t, Number("abc"))
	assert.False(t, Number(""))
	assert.False(t, Number("-1"))
	assert.False(t, Number("1."))
	assert.False(t, Number(".5"))
}

func TestHour(t *testing.T) {
	h, ok := Hour("９")
	assert.True(t, ok)
	assert.Equal(t, 9, h)

	_, ok = Hour("24")
	assert.False(t, ok)
	_, ok = Hour("store")
	assert.False(t, ok)
}
