package processor

import (
	"sort"

	"github.com/go-gota/gota/dataframe"
)

// OneHotEncoder expands categorical columns into 0/1 indicator columns.
// Categories are learned by Fit; values first seen later encode as an
// all-zero block, as do missing cells.
type OneHotEncoder struct {
	Columns []string

	categories [][]string
	index      []map[string]int
	offsets    []int
	width      int
	fitted     bool
}

func NewOneHotEncoder(columns ...string) *OneHotEncoder {
	return &OneHotEncoder{Columns: columns}
}

// Fit records the sorted distinct categories of every column.
func (e *OneHotEncoder) Fit(df dataframe.DataFrame) error {
	if err := requireColumns(df, e.Columns...); err != nil {
		return err
	}
	e.categories = make([][]string, len(e.Columns))
	e.index = make([]map[string]int, len(e.Columns))
	e.offsets = make([]int, len(e.Columns))
	e.width = 0

	for c, name := range e.Columns {
		values, missing, err := textColumn(df, name)
		if err != nil {
			return err
		}
		seen := map[string]bool{}
		for i, v := range values {
			if !missing[i] && v != "" {
				seen[v] = true
			}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)

		idx := make(map[string]int, len(cats))
		for i, v := range cats {
			idx[v] = i
		}
		e.categories[c] = cats
		e.index[c] = idx
		e.offsets[c] = e.width
		e.width += len(cats)
	}
	e.fitted = true
	return nil
}

// Transform returns one row of Width() indicators per table row.
func (e *OneHotEncoder) Transform(df dataframe.DataFrame) ([][]float64, error) {
	if !e.fitted {
		return nil, ErrNotFitted
	}
	n := df.Nrow()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, e.width)
	}
	for c, name := range e.Columns {
		values, missing, err := textColumn(df, name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if missing[i] {
				continue
			}
			if j, ok := e.index[c][v]; ok {
				out[i][e.offsets[c]+j] = 1
			}
		}
	}
	return out, nil
}

// FeatureNames lists the indicator columns as "<column>_<category>" in
// column order, categories sorted within each column.
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.width)
	for c, name := range e.Columns {
		for _, cat := range e.categories[c] {
			names = append(names, name+"_"+cat)
		}
	}
	return names
}

// Categories returns the fitted categories of column.
func (e *OneHotEncoder) Categories(column string) []string {
	for c, name := range e.Columns {
		if name == column {
			return e.categories[c]
		}
	}
	return nil
}

func (e *OneHotEncoder) Width() int { return e.width }
