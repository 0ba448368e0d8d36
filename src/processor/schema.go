package processor

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Raw input columns.
const (
	ColAirline       = "Airline"
	ColDateOfJourney = "Date_of_Journey"
	ColSource        = "Source"
	ColDestination   = "Destination"
	ColRoute         = "Route"
	ColDepTime       = "Dep_Time"
	ColArrivalTime   = "Arrival_Time"
	ColDuration      = "Duration"
	ColTotalStops    = "Total_Stops"
	ColPrice         = "Price"
)

// Engineered columns.
const (
	ColDayOfJourney         = "Day_of_Journey"
	ColMonthOfJourney       = "Month_of_Journey"
	ColDepHour              = "Dep_Hour"
	ColDepMinutes           = "Dep_Minutes"
	ColArrivalHour          = "Arrival_Hour"
	ColArrivalMinutes       = "Arrival_Minutes"
	ColDurationHour         = "Duration_Hour"
	ColDurationMinute       = "Duration_Minute"
	ColTotalDurationMinutes = "Total_Duration_minutes"
	ColTotalStopsClean      = "Total_Stops_Clean"
	ColAirlineAvgPrice      = "Airline_Avg_Price"
	ColRouteAvgPrice        = "Route_Avg_Price"
	ColRoutePriceStd        = "Route_Price_Std"
	ColDepTimeBucket        = "Dep_Time_Bucket"
)

// RequiredColumns must be present in every raw fare table.
var RequiredColumns = []string{
	ColDateOfJourney, ColDepTime, ColArrivalTime, ColDuration, ColTotalStops,
	ColRoute, ColAirline, ColSource, ColDestination, ColPrice,
}

// benchmarkColumns are derived from the target and never enter the model.
var benchmarkColumns = []string{ColAirlineAvgPrice, ColRouteAvgPrice, ColRoutePriceStd}

var (
	ErrMissingColumn = errors.New("missing column")
	ErrNoRows        = errors.New("no rows left after cleaning")
	ErrNotFitted     = errors.New("feature matrix builder is not fitted")
	ErrLeakage       = errors.New("target-derived column in feature set")
)

// ParseError reports a malformed value in a free-text field. Row is the
// 0-based position in the working table.
type ParseError struct {
	Field string
	Value string
	Row   int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s at row %d: %q: %v", e.Field, e.Row, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s at row %d: %q", e.Field, e.Row, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FlightRecord is one raw itinerary row as it appears in the fare files.
type FlightRecord struct {
	Airline        string `csv:"Airline"`
	DateOfJourney  string `csv:"Date_of_Journey"`
	Source         string `csv:"Source"`
	Destination    string `csv:"Destination"`
	Route          string `csv:"Route"`
	DepTime        string `csv:"Dep_Time"`
	ArrivalTime    string `csv:"Arrival_Time"`
	Duration       string `csv:"Duration"`
	TotalStops     string `csv:"Total_Stops"`
	AdditionalInfo string `csv:"Additional_Info,omitempty"`
	Price          string `csv:"Price"`
}

// RecordsToDataFrame builds the raw table from decoded records. Price stays
// text so grouped amounts like "3,897" reach ParsePrice intact.
func RecordsToDataFrame(records []FlightRecord) dataframe.DataFrame {
	n := len(records)
	cols := map[string][]string{}
	for _, name := range RequiredColumns {
		cols[name] = make([]string, n)
	}
	info := make([]string, n)
	for i, r := range records {
		cols[ColAirline][i] = r.Airline
		cols[ColDateOfJourney][i] = r.DateOfJourney
		cols[ColSource][i] = r.Source
		cols[ColDestination][i] = r.Destination
		cols[ColRoute][i] = r.Route
		cols[ColDepTime][i] = r.DepTime
		cols[ColArrivalTime][i] = r.ArrivalTime
		cols[ColDuration][i] = r.Duration
		cols[ColTotalStops][i] = r.TotalStops
		info[i] = r.AdditionalInfo
		cols[ColPrice][i] = r.Price
	}

	s := []series.Series{
		stringSeries(cols[ColAirline], ColAirline),
		stringSeries(cols[ColDateOfJourney], ColDateOfJourney),
		stringSeries(cols[ColSource], ColSource),
		stringSeries(cols[ColDestination], ColDestination),
		stringSeries(cols[ColRoute], ColRoute),
		stringSeries(cols[ColDepTime], ColDepTime),
		stringSeries(cols[ColArrivalTime], ColArrivalTime),
		stringSeries(cols[ColDuration], ColDuration),
		stringSeries(cols[ColTotalStops], ColTotalStops),
		stringSeries(info, "Additional_Info"),
		stringSeries(cols[ColPrice], ColPrice),
	}
	return dataframe.New(s...)
}

// stringSeries keeps every value as text, including "NaN" which gota
// treats as missing.
func stringSeries(values []string, name string) series.Series {
	return series.New(values, series.String, name)
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	have := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		have[n] = true
	}
	var missing []string
	for _, n := range names {
		if !have[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}
	return nil
}

// textColumn returns the column as strings and a mask of missing cells.
func textColumn(df dataframe.DataFrame, name string) ([]string, []bool, error) {
	col := df.Col(name)
	if col.Err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	n := col.Len()
	values := make([]string, n)
	missing := make([]bool, n)
	for i := 0; i < n; i++ {
		e := col.Elem(i)
		if e.IsNA() {
			missing[i] = true
			continue
		}
		values[i] = e.String()
	}
	return values, missing, nil
}

func floatColumn(df dataframe.DataFrame, name string) ([]float64, error) {
	col := df.Col(name)
	if col.Err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return col.Float(), nil
}
