package processor

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"PricingIntelligence/src/model"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// CorrelationColumns are the inputs of the correlation matrix.
var CorrelationColumns = []string{ColPrice, ColTotalDurationMinutes, ColTotalStopsClean}

type StopsSummary struct {
	Stops  int
	Mean   float64
	Median float64
	Count  int
}

type RouteVariance struct {
	Route string
	Mean  float64
	Std   float64 // NaN for a single flight
	Count int
}

type AirlinePrice struct {
	Airline string
	Mean    float64
	Count   int
}

// RelativePricing describes Price - Route_Avg_Price for one airline.
type RelativePricing struct {
	Airline string
	Mean    float64
	Std     float64
	Count   int
}

type AboveAverage struct {
	Airline string
	Percent float64
	Count   int
}

// CorrelationMatrix is a square Pearson matrix over Columns.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Analysis holds the descriptive findings on the feature table.
type Analysis struct {
	ByStops           []StopsSummary
	Correlation       CorrelationMatrix
	RouteVariance     []RouteVariance
	SampleRoute       string
	SampleRoutePrices []AirlinePrice
	Relative          []RelativePricing
	AboveRouteAverage []AboveAverage
}

// Analyze runs the price-driver analysis on a preprocessed table. topRoutes
// limits RouteVariance; zero keeps every route.
func Analyze(df dataframe.DataFrame, sampleRoute string, topRoutes int) (*Analysis, error) {
	if err := requireColumns(df, ColPrice, ColTotalStopsClean, ColTotalDurationMinutes,
		ColAirline, ColRoute, ColRouteAvgPrice); err != nil {
		return nil, err
	}

	a := &Analysis{SampleRoute: sampleRoute}
	var err error
	if a.ByStops, err = priceByStops(df); err != nil {
		return nil, err
	}
	if a.Correlation, err = Correlation(df, CorrelationColumns...); err != nil {
		return nil, err
	}
	if a.RouteVariance, err = routeVariance(df, topRoutes); err != nil {
		return nil, err
	}
	if a.SampleRoutePrices, err = routeAirlinePrices(df, sampleRoute); err != nil {
		return nil, err
	}
	if a.Relative, a.AboveRouteAverage, err = relativePricing(df); err != nil {
		return nil, err
	}
	return a, nil
}

func priceByStops(df dataframe.DataFrame) ([]StopsSummary, error) {
	groups, err := groupRows(df, ColTotalStopsClean)
	if err != nil {
		return nil, err
	}
	all, err := floatColumn(df, ColPrice)
	if err != nil {
		return nil, err
	}

	var out []StopsSummary
	for key, rows := range groups {
		stops, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("stops group %q: %w", key, err)
		}
		prices := model.Values(all, rows)
		out = append(out, StopsSummary{
			Stops:  stops,
			Mean:   stat.Mean(prices, nil),
			Median: median(prices),
			Count:  len(prices),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stops < out[j].Stops })
	return out, nil
}

func median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1
	if n&1 == 0 {
		return (cp[mid-1] + cp[mid]) * 0.5
	}
	return cp[mid]
}

// Correlation computes pairwise Pearson coefficients. A constant column
// correlates as NaN with everything but itself.
func Correlation(df dataframe.DataFrame, columns ...string) (CorrelationMatrix, error) {
	data := make([][]float64, len(columns))
	for i, c := range columns {
		v, err := floatColumn(df, c)
		if err != nil {
			return CorrelationMatrix{}, err
		}
		data[i] = v
	}
	values := make([][]float64, len(columns))
	for i := range columns {
		values[i] = make([]float64, len(columns))
		for j := range columns {
			if i == j {
				values[i][j] = 1
				continue
			}
			values[i][j] = stat.Correlation(data[i], data[j], nil)
		}
	}
	return CorrelationMatrix{Columns: columns, Values: values}, nil
}

// At returns the coefficient of two named columns.
func (m CorrelationMatrix) At(a, b string) float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// routeVariance ranks routes by price spread, routes without a spread last.
func routeVariance(df dataframe.DataFrame, top int) ([]RouteVariance, error) {
	routes, _, err := textColumn(df, ColRoute)
	if err != nil {
		return nil, err
	}
	prices, err := floatColumn(df, ColPrice)
	if err != nil {
		return nil, err
	}

	var out []RouteVariance
	for route, gs := range GroupStats(routes, prices) {
		out = append(out, RouteVariance{Route: route, Mean: gs.Mean, Std: gs.Std, Count: gs.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Std, out[j].Std
		switch {
		case math.IsNaN(a) && math.IsNaN(b):
			return out[i].Route < out[j].Route
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case a != b:
			return a > b
		}
		return out[i].Route < out[j].Route
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out, nil
}

// routeAirlinePrices compares airlines on one route, dearest first. An
// absent route yields no rows.
func routeAirlinePrices(df dataframe.DataFrame, route string) ([]AirlinePrice, error) {
	onRoute := df.Filter(dataframe.F{Colname: ColRoute, Comparator: series.Eq, Comparando: route})
	if onRoute.Err != nil {
		return nil, onRoute.Err
	}
	if onRoute.Nrow() == 0 {
		return nil, nil
	}

	groups, err := groupRows(onRoute, ColAirline)
	if err != nil {
		return nil, err
	}
	all, err := floatColumn(onRoute, ColPrice)
	if err != nil {
		return nil, err
	}

	var out []AirlinePrice
	for airline, rows := range groups {
		prices := model.Values(all, rows)
		out = append(out, AirlinePrice{Airline: airline, Mean: stat.Mean(prices, nil), Count: len(prices)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Airline < out[j].Airline
	})
	return out, nil
}

// relativePricing measures each airline against the route benchmark. Rows
// without an airline are left out.
func relativePricing(df dataframe.DataFrame) ([]RelativePricing, []AboveAverage, error) {
	groups, err := groupRows(df, ColAirline)
	if err != nil {
		return nil, nil, err
	}
	allPrices, err := floatColumn(df, ColPrice)
	if err != nil {
		return nil, nil, err
	}
	allAvg, err := floatColumn(df, ColRouteAvgPrice)
	if err != nil {
		return nil, nil, err
	}

	var rel []RelativePricing
	var above []AboveAverage
	for airline, rows := range groups {
		prices := model.Values(allPrices, rows)
		avg := model.Values(allAvg, rows)

		diffs := make([]float64, len(prices))
		over := 0
		for i := range prices {
			diffs[i] = prices[i] - avg[i]
			if prices[i] > avg[i] {
				over++
			}
		}
		std := math.NaN()
		if len(diffs) > 1 {
			std = stat.StdDev(diffs, nil)
		}
		rel = append(rel, RelativePricing{Airline: airline, Mean: stat.Mean(diffs, nil), Std: std, Count: len(diffs)})
		above = append(above, AboveAverage{
			Airline: airline,
			Percent: 100 * float64(over) / float64(len(prices)),
			Count:   len(prices),
		})
	}
	sort.Slice(rel, func(i, j int) bool {
		if rel[i].Mean != rel[j].Mean {
			return rel[i].Mean > rel[j].Mean
		}
		return rel[i].Airline < rel[j].Airline
	})
	sort.Slice(above, func(i, j int) bool {
		if above[i].Percent != above[j].Percent {
			return above[i].Percent > above[j].Percent
		}
		return above[i].Airline < above[j].Airline
	})
	return rel, above, nil
}

// groupRows maps each key of col to its row positions. Missing or empty
// keys belong to no group.
func groupRows(df dataframe.DataFrame, col string) (map[string][]int, error) {
	keys, missing, err := textColumn(df, col)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]int)
	for i, k := range keys {
		if missing[i] || k == "" {
			continue
		}
		groups[k] = append(groups[k], i)
	}
	return groups, nil
}
