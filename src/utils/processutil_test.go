package utils

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"IndiGo", "Air India"}, series.String, "Airline"),
		series.New([]int{0, 2}, series.Int, "Total_Stops_Clean"),
		series.New([]float64{3897, math.NaN()}, series.Float, "Route_Price_Std"),
	)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]int{1, 2}, 3))
}

func TestColumns(t *testing.T) {
	df := sampleFrame()
	assert.True(t, HasColumn(df, "Airline"))
	assert.False(t, HasColumn(df, "Price"))
	assert.Equal(t, []string{"Price", "Route"}, MissingColumns(df, "Airline", "Price", "Route"))
	assert.Nil(t, MissingColumns(df, "Airline"))
}

func TestSaveToExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.xlsx")
	require.NoError(t, SaveToExcel(sampleFrame(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Airline", "Total_Stops_Clean", "Route_Price_Std"}, rows[0])
	assert.Equal(t, []string{"IndiGo", "0", "3897"}, rows[1])
	// GetRows trims trailing empty cells
	assert.Equal(t, []string{"Air India", "2"}, rows[2])
}
