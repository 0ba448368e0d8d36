package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PricingIntelligence/src/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

var fareHeader = []string{
	"Airline", "Date_of_Journey", "Source", "Destination", "Route",
	"Dep_Time", "Arrival_Time", "Duration", "Total_Stops", "Additional_Info", "Price",
}

// writeWorkbook saves a sheet with a title row above the header.
func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("fares")
	require.NoError(t, err)

	sheet.AddRow().AddCell().SetString("Flight fares export")
	for _, r := range append([][]string{fareHeader}, rows...) {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fares.xlsx")
	writeWorkbook(t, path, [][]string{
		{"IndiGo", "24/03/2019", "Banglore", "New Delhi", "BLR → DEL", "22:20", "01:10 22 Mar", "2h 50m", "non-stop", "No info", "3897"},
		{"Air India", "1/05/2019", "Kolkata", "Banglore", "CCU → IXR → BBI → BLR", "05:50", "13:15", "7h 25m", "2 stops"},
	})

	df, err := ReadXLSX(path, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, fareHeader, df.Names())
	assert.Equal(t, "BLR → DEL", df.Col("Route").Elem(0).String())
	// short row padded
	assert.Equal(t, "", df.Col("Price").Elem(1).String())

	_, err = ReadXLSX(path, "missing", 1)
	assert.Error(t, err)
	_, err = ReadXLSX(path, "fares", 10)
	assert.Error(t, err)
}

func TestReadXLSXBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fares.xlsx")
	writeWorkbook(t, path, [][]string{
		{"IndiGo", "24/03/2019", "Banglore", "New Delhi", "BLR → DEL", "22:20", "01:10", "2h 50m", "non-stop", "", "3897"},
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	df, err := ReadXLSXBinary(data, "fares", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, df.Nrow())

	_, err = ReadXLSXBinary([]byte("not a zip"), "", 0)
	assert.Error(t, err)
}

const fareCSV = `Airline,Date_of_Journey,Source,Destination,Route,Dep_Time,Arrival_Time,Duration,Total_Stops,Additional_Info,Price
IndiGo,24/03/2019,Banglore,New Delhi,BLR → DEL,22:20,01:10 22 Mar,2h 50m,non-stop,No info,3897
Jet Airways,9/06/2019,Delhi,Cochin,DEL → LKO → BOM → COK,09:25,04:25 10 Jun,19h,2 stops,No info,13882
`

func TestParseCSV(t *testing.T) {
	df, err := ParseCSV(strings.NewReader(fareCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, 13882.0, df.Col(processor.ColPrice).Elem(1).Float())
	assert.Equal(t, "19h", df.Col(processor.ColDuration).Elem(1).String())

	_, err = ParseCSV(strings.NewReader("Airline,Price\nIndiGo,1\n"))
	assert.ErrorIs(t, err, processor.ErrMissingColumn)
}

func TestParseCSVGroupedPrice(t *testing.T) {
	data := strings.Replace(fareCSV, ",No info,3897", `,No info,"3,897"`, 1)
	df, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "3,897", df.Col(processor.ColPrice).Elem(0).String())

	parsed, err := processor.ParsePrice(df)
	require.NoError(t, err)
	assert.Equal(t, []float64{3897, 13882}, parsed.Col(processor.ColPrice).Float())

	// a padded header name is not the Price column
	padded := strings.Replace(fareCSV, "Additional_Info,Price", "Additional_Info, Price", 1)
	_, err = ParseCSV(strings.NewReader(padded))
	assert.ErrorIs(t, err, processor.ErrMissingColumn)
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "fares.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(fareCSV), 0644))

	df, err := Load(csvPath, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())

	_, err = Load(filepath.Join(dir, "fares.json"), "", 0)
	assert.Error(t, err)
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "fares_march.csv")
	recent := filepath.Join(dir, "fares_april.xlsx")
	require.NoError(t, os.WriteFile(old, []byte(fareCSV), 0644))
	require.NoError(t, os.WriteFile(recent, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	latest, err := FindLatest(dir, "fares")
	require.NoError(t, err)
	assert.Equal(t, recent, latest.FullPath)

	_, err = FindLatest(dir, "nothing")
	assert.Error(t, err)
}

func TestFileMonitor(t *testing.T) {
	dir := t.TempDir()
	monitor, err := NewFileMonitor(dir)
	require.NoError(t, err)
	defer monitor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 10)
	go monitor.Watch(ctx, func(name string) { seen <- name })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	target := filepath.Join(dir, "fares.csv")
	require.NoError(t, os.WriteFile(target, []byte(fareCSV), 0644))

	select {
	case name := <-seen:
		assert.Equal(t, target, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for fare file")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, EnsureDir(file))
}
