package processor

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// GroupStat summarises the prices of one group.
type GroupStat struct {
	Mean  float64
	Std   float64 // sample standard deviation, NaN below two rows
	Count int
}

// GroupStats collects values per key and computes each group once it is
// complete.
func GroupStats(keys []string, values []float64) map[string]GroupStat {
	groups := make(map[string][]float64)
	for i, k := range keys {
		groups[k] = append(groups[k], values[i])
	}

	out := make(map[string]GroupStat, len(groups))
	for k, vals := range groups {
		gs := GroupStat{Mean: stat.Mean(vals, nil), Std: math.NaN(), Count: len(vals)}
		if len(vals) > 1 {
			gs.Std = stat.StdDev(vals, nil)
		}
		out[k] = gs
	}
	return out
}

// AddBenchmarks broadcasts the airline mean price and the route mean and
// standard deviation onto every row. A row without an airline gets a
// missing airline average. These columns describe the target and
// are kept for analysis only.
func AddBenchmarks(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	prices, err := floatColumn(df, ColPrice)
	if err != nil {
		return df, err
	}
	airlines, noAirline, err := textColumn(df, ColAirline)
	if err != nil {
		return df, err
	}
	routes, _, err := textColumn(df, ColRoute)
	if err != nil {
		return df, err
	}

	byAirline := GroupStats(airlines, prices)
	byRoute := GroupStats(routes, prices)

	n := df.Nrow()
	airlineAvg := make([]float64, n)
	routeAvg := make([]float64, n)
	routeStd := make([]float64, n)
	for i := 0; i < n; i++ {
		airlineAvg[i] = math.NaN()
		if !noAirline[i] && airlines[i] != "" {
			airlineAvg[i] = byAirline[airlines[i]].Mean
		}
		r := byRoute[routes[i]]
		routeAvg[i] = r.Mean
		routeStd[i] = r.Std
	}

	return mutate(df,
		series.New(airlineAvg, series.Float, ColAirlineAvgPrice),
		series.New(routeAvg, series.Float, ColRouteAvgPrice),
		series.New(routeStd, series.Float, ColRoutePriceStd),
	)
}
