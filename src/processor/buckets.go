package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	BucketEarlyMorning = "Early Morning"
	BucketMorning      = "Morning"
	BucketAfternoon    = "Afternoon"
	BucketEvening      = "Evening"
)

// naLabel is how gota spells a missing string cell.
const naLabel = "NaN"

// departure periods, left-inclusive and right-exclusive
var depTimeBuckets = []struct {
	from, to int
	label    string
}{
	{0, 6, BucketEarlyMorning},
	{6, 12, BucketMorning},
	{12, 18, BucketAfternoon},
	{18, 24, BucketEvening},
}

// TimeBucket labels a departure hour. Hours outside [0,24) have no label.
func TimeBucket(hour int) (string, bool) {
	for _, b := range depTimeBuckets {
		if hour >= b.from && hour < b.to {
			return b.label, true
		}
	}
	return "", false
}

// AddTimeBuckets adds Dep_Time_Bucket from Dep_Hour. Unlabeled hours are
// stored as missing.
func AddTimeBuckets(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	col := df.Col(ColDepHour)
	if col.Err != nil {
		return df, fmt.Errorf("%w: %s", ErrMissingColumn, ColDepHour)
	}
	hours, err := col.Int()
	if err != nil {
		return df, err
	}

	labels := make([]string, len(hours))
	for i, h := range hours {
		label, ok := TimeBucket(h)
		if !ok {
			label = naLabel
		}
		labels[i] = label
	}
	return mutate(df, series.New(labels, series.String, ColDepTimeBucket))
}
