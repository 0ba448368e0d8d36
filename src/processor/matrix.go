package processor

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// FeatureSet names the model inputs.
type FeatureSet struct {
	Categorical []string
	Numeric     []string
}

func DefaultFeatureSet() FeatureSet {
	return FeatureSet{
		Categorical: []string{ColAirline, ColSource, ColDestination, ColDepTimeBucket},
		Numeric:     []string{ColTotalStopsClean, ColTotalDurationMinutes, ColDayOfJourney, ColMonthOfJourney},
	}
}

// validate rejects the target and the price benchmarks as inputs.
func (fs FeatureSet) validate(target string) error {
	banned := append([]string{target}, benchmarkColumns...)
	for _, col := range append(append([]string{}, fs.Categorical...), fs.Numeric...) {
		for _, b := range banned {
			if col == b {
				return fmt.Errorf("%w: %s", ErrLeakage, col)
			}
		}
	}
	if len(fs.Categorical)+len(fs.Numeric) == 0 {
		return fmt.Errorf("empty feature set")
	}
	return nil
}

// MatrixBuilder projects the feature columns and encodes them. Column order
// is one-hot blocks first, then numeric columns as declared, and is fixed
// by Fit.
type MatrixBuilder struct {
	Features FeatureSet

	encoder *OneHotEncoder
	fitted  bool
}

func NewMatrixBuilder(fs FeatureSet) *MatrixBuilder {
	return &MatrixBuilder{Features: fs, encoder: NewOneHotEncoder(fs.Categorical...)}
}

func (b *MatrixBuilder) Fit(df dataframe.DataFrame) error {
	if err := requireColumns(df, b.Features.Numeric...); err != nil {
		return err
	}
	if err := b.encoder.Fit(df); err != nil {
		return err
	}
	b.fitted = true
	return nil
}

// Transform encodes df with the fitted column layout. A missing numeric
// value is an error.
func (b *MatrixBuilder) Transform(df dataframe.DataFrame) ([][]float64, error) {
	if !b.fitted {
		return nil, ErrNotFitted
	}
	X, err := b.encoder.Transform(df)
	if err != nil {
		return nil, err
	}
	width := b.encoder.Width()
	for i := range X {
		X[i] = append(X[i], make([]float64, len(b.Features.Numeric))...)
	}
	for j, name := range b.Features.Numeric {
		values, err := floatColumn(df, name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("numeric feature %s missing at row %d", name, i)
			}
			X[i][width+j] = v
		}
	}
	return X, nil
}

func (b *MatrixBuilder) FitTransform(df dataframe.DataFrame) ([][]float64, error) {
	if err := b.Fit(df); err != nil {
		return nil, err
	}
	return b.Transform(df)
}

// FeatureNames are aligned with the matrix columns.
func (b *MatrixBuilder) FeatureNames() []string {
	return append(b.encoder.FeatureNames(), b.Features.Numeric...)
}

func (b *MatrixBuilder) NumColumns() int {
	return b.encoder.Width() + len(b.Features.Numeric)
}

// Encoder exposes the fitted categorical layout.
func (b *MatrixBuilder) Encoder() *OneHotEncoder { return b.encoder }
