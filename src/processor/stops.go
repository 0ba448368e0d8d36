package processor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var stopsPattern = regexp.MustCompile(`(\d+)`)

// ParseStops reads "non-stop" as 0 and otherwise the first integer in the
// string. ok is false when no integer is present.
func ParseStops(s string) (stops int, ok bool) {
	v := strings.TrimSpace(s)
	if v == "non-stop" {
		v = "0 stops"
	}
	m := stopsPattern.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeStops adds Total_Stops_Clean and drops every row whose stops
// value carries no count or whose Route is missing. Dropping is the data
// quality policy for these fields, so it returns the count rather than an
// error.
func NormalizeStops(df dataframe.DataFrame) (dataframe.DataFrame, int, error) {
	stops, stopsNA, err := textColumn(df, ColTotalStops)
	if err != nil {
		return df, 0, err
	}
	routes, routeNA, err := textColumn(df, ColRoute)
	if err != nil {
		return df, 0, err
	}

	keep := make([]int, 0, df.Nrow())
	clean := make([]int, 0, df.Nrow())
	for i := range stops {
		if stopsNA[i] || routeNA[i] || strings.TrimSpace(routes[i]) == "" {
			continue
		}
		n, ok := ParseStops(stops[i])
		if !ok {
			continue
		}
		keep = append(keep, i)
		clean = append(clean, n)
	}

	dropped := df.Nrow() - len(keep)
	if len(keep) == 0 {
		return df, dropped, ErrNoRows
	}
	if dropped > 0 {
		df = df.Subset(keep)
		if df.Err != nil {
			return df, 0, df.Err
		}
	}
	df, err = mutate(df, series.New(clean, series.Int, ColTotalStopsClean))
	return df, dropped, err
}
