package processor

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var errDurationFormat = errors.New("expected <int>h and/or <int>m")

var durationPattern = regexp.MustCompile(`^(?:(\d+)h)?\s*(?:(\d+)m)?$`)

// ParseDuration reads "2h 50m", "19h" or "45m". A missing segment counts
// as zero; a string with neither segment is rejected.
func ParseDuration(s string) (hours, minutes int, err error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, 0, errDurationFormat
	}
	if m[1] != "" {
		if hours, err = strconv.Atoi(m[1]); err != nil {
			return 0, 0, err
		}
	}
	if m[2] != "" {
		if minutes, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, err
		}
	}
	return hours, minutes, nil
}

// TotalMinutes is hours*60 + minutes of a duration string.
func TotalMinutes(s string) (int, error) {
	h, m, err := ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// ExtractDuration adds Duration_Hour, Duration_Minute and
// Total_Duration_minutes.
func ExtractDuration(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	values, na, err := textColumn(df, ColDuration)
	if err != nil {
		return df, err
	}

	n := df.Nrow()
	hours, minutes, total := make([]int, n), make([]int, n), make([]int, n)
	for i := 0; i < n; i++ {
		if na[i] {
			return df, &ParseError{Field: ColDuration, Value: "NaN", Row: i, Err: errDurationFormat}
		}
		if hours[i], minutes[i], err = ParseDuration(values[i]); err != nil {
			return df, &ParseError{Field: ColDuration, Value: values[i], Row: i, Err: err}
		}
		total[i] = hours[i]*60 + minutes[i]
	}

	return mutate(df,
		series.New(hours, series.Int, ColDurationHour),
		series.New(minutes, series.Int, ColDurationMinute),
		series.New(total, series.Int, ColTotalDurationMinutes),
	)
}
