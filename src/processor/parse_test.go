package processor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		wantErr bool
	}{
		{"2h 50m", 170, false},
		{"19h", 1140, false},
		{"45m", 45, false},
		{"1h50m", 110, false},
		{" 5m ", 5, false},
		{"abc", 0, true},
		{"", 0, true},
		{"2 hours", 0, true},
		{"50m 2h", 0, true},
	}
	for _, c := range cases {
		got, err := TotalMinutes(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.minutes, got, c.in)
	}
}

func TestExtractDurationParseError(t *testing.T) {
	df := loadRaw(
		fare("IndiGo", "BLR → DEL", "non-stop", "3897"),
		[]string{"IndiGo", "24/03/2019", "BLR", "DEL", "BLR → DEL", "22:20", "01:10", "soon", "non-stop", "3897"},
	)

	_, err := ExtractDuration(df)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ColDuration, pe.Field)
	assert.Equal(t, "soon", pe.Value)
	assert.Equal(t, 1, pe.Row)
}

func TestParseJourneyDate(t *testing.T) {
	cases := []struct {
		in         string
		day, month int
	}{
		{"24/03/2019", 24, 3},
		{"1/05/2019", 1, 5},
		{"9/6/2019", 9, 6},
		{"2019-06-09", 9, 6},
		{"43548", 24, 3},
	}
	for _, c := range cases {
		day, month, err := ParseJourneyDate(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.day, day, c.in)
		assert.Equal(t, c.month, month, c.in)
	}

	for _, bad := range []string{"", "31/13/2019", "March 24", "24/03", "24032019", "1", "99999999"} {
		_, _, err := ParseJourneyDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("22:20")
	require.NoError(t, err)
	assert.Equal(t, []int{22, 20}, []int{h, m})

	h, m, err = ParseArrival("01:10 22 Mar")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 10}, []int{h, m})

	_, _, err = ParseClock("25:00")
	assert.Error(t, err)
	_, _, err = ParseArrival("   ")
	assert.Error(t, err)
}

func TestExtractDateTime(t *testing.T) {
	df, err := ExtractDateTime(loadRaw(fare("IndiGo", "BLR → DEL", "non-stop", "3897")))
	require.NoError(t, err)

	assert.Equal(t, 24.0, df.Col(ColDayOfJourney).Elem(0).Float())
	assert.Equal(t, 3.0, df.Col(ColMonthOfJourney).Elem(0).Float())
	assert.Equal(t, 22.0, df.Col(ColDepHour).Elem(0).Float())
	assert.Equal(t, 20.0, df.Col(ColDepMinutes).Elem(0).Float())
	assert.Equal(t, 1.0, df.Col(ColArrivalHour).Elem(0).Float())
	assert.Equal(t, 10.0, df.Col(ColArrivalMinutes).Elem(0).Float())
}

func TestExtractDateTimeParseError(t *testing.T) {
	row := fare("IndiGo", "BLR → DEL", "non-stop", "3897")
	row[5] = "late"

	_, err := ExtractDateTime(loadRaw(row))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ColDepTime, pe.Field)
	assert.Equal(t, "late", pe.Value)
}

func TestParsePrice(t *testing.T) {
	df, err := ParsePrice(loadRaw(fare("IndiGo", "BLR → DEL", "non-stop", "13,882")))
	require.NoError(t, err)
	assert.Equal(t, 13882.0, df.Col(ColPrice).Elem(0).Float())

	_, err = ParsePrice(loadRaw(fare("IndiGo", "BLR → DEL", "non-stop", "free")))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ColPrice, pe.Field)

	for _, bad := range []string{"nan", "NaN ", "-Inf"} {
		_, err = ParsePrice(loadRaw(fare("IndiGo", "BLR → DEL", "non-stop", bad)))
		require.True(t, errors.As(err, &pe), bad)
		assert.Equal(t, 0, pe.Row, bad)
	}
}
