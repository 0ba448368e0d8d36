package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ParsePrice converts the Price column to floats. Thousands separators are
// tolerated; anything else non-numeric is a ParseError.
func ParsePrice(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	col := df.Col(ColPrice)
	if col.Err != nil {
		return df, fmt.Errorf("%w: %s", ErrMissingColumn, ColPrice)
	}

	prices := make([]float64, col.Len())
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if col.Type() == series.Float || col.Type() == series.Int {
			v := e.Float()
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return df, &ParseError{Field: ColPrice, Value: e.String(), Row: i}
			}
			prices[i] = v
			continue
		}
		raw := strings.ReplaceAll(strings.TrimSpace(e.String()), ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || e.IsNA() || math.IsNaN(v) || math.IsInf(v, 0) {
			return df, &ParseError{Field: ColPrice, Value: e.String(), Row: i, Err: err}
		}
		prices[i] = v
	}
	return mutate(df, series.New(prices, series.Float, ColPrice))
}

// mutate adds or replaces a column and surfaces gota's deferred error.
func mutate(df dataframe.DataFrame, cols ...series.Series) (dataframe.DataFrame, error) {
	for _, s := range cols {
		df = df.Mutate(s)
		if df.Err != nil {
			return df, df.Err
		}
	}
	return df, nil
}
