package processor

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	errDateFormat  = errors.New("expected day-first date such as 24/03/2019")
	errClockFormat = errors.New("expected HH:MM")
)

// Day-first layouts accepted for Date_of_Journey.
var journeyDateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

var excelSerialPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Serials outside 1970-01-01..2100-01-01 are not journey dates.
const (
	minJourneySerial = 25569
	maxJourneySerial = 73051
)

// ParseJourneyDate returns the day and month of a journey date. Workbooks
// that stored the cell as a date yield an Excel serial number, which is
// accepted too.
func ParseJourneyDate(s string) (day, month int, err error) {
	v := strings.TrimSpace(s)
	if excelSerialPattern.MatchString(v) {
		serial, err := strconv.ParseFloat(v, 64)
		if err != nil || serial < minJourneySerial || serial > maxJourneySerial {
			return 0, 0, errDateFormat
		}
		t := excelToTime(serial)
		return t.Day(), int(t.Month()), nil
	}
	for _, layout := range journeyDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Day(), int(t.Month()), nil
		}
	}
	return 0, 0, errDateFormat
}

// excelToTime converts a 1900-system serial date. The 1899-12-30 epoch
// absorbs Excel's phantom 1900-02-29.
func excelToTime(serial float64) time.Time {
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return base.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, errClockFormat
	}
	return t.Hour(), t.Minute(), nil
}

// ParseArrival parses an arrival time, dropping a trailing " 22 Mar" style
// suffix first.
func ParseArrival(s string) (hour, minute int, err error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, 0, errClockFormat
	}
	return ParseClock(fields[0])
}

// ExtractDateTime adds Day_of_Journey, Month_of_Journey, Dep_Hour,
// Dep_Minutes, Arrival_Hour and Arrival_Minutes. The first malformed value
// aborts with a ParseError.
func ExtractDateTime(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	dates, dateNA, err := textColumn(df, ColDateOfJourney)
	if err != nil {
		return df, err
	}
	deps, depNA, err := textColumn(df, ColDepTime)
	if err != nil {
		return df, err
	}
	arrs, arrNA, err := textColumn(df, ColArrivalTime)
	if err != nil {
		return df, err
	}

	n := df.Nrow()
	day, month := make([]int, n), make([]int, n)
	depH, depM := make([]int, n), make([]int, n)
	arrH, arrM := make([]int, n), make([]int, n)

	for i := 0; i < n; i++ {
		if dateNA[i] {
			return df, &ParseError{Field: ColDateOfJourney, Value: "NaN", Row: i, Err: errDateFormat}
		}
		if day[i], month[i], err = ParseJourneyDate(dates[i]); err != nil {
			return df, &ParseError{Field: ColDateOfJourney, Value: dates[i], Row: i, Err: err}
		}
		if depNA[i] {
			return df, &ParseError{Field: ColDepTime, Value: "NaN", Row: i, Err: errClockFormat}
		}
		if depH[i], depM[i], err = ParseClock(deps[i]); err != nil {
			return df, &ParseError{Field: ColDepTime, Value: deps[i], Row: i, Err: err}
		}
		if arrNA[i] {
			return df, &ParseError{Field: ColArrivalTime, Value: "NaN", Row: i, Err: errClockFormat}
		}
		if arrH[i], arrM[i], err = ParseArrival(arrs[i]); err != nil {
			return df, &ParseError{Field: ColArrivalTime, Value: arrs[i], Row: i, Err: err}
		}
	}

	return mutate(df,
		series.New(day, series.Int, ColDayOfJourney),
		series.New(month, series.Int, ColMonthOfJourney),
		series.New(depH, series.Int, ColDepHour),
		series.New(depM, series.Int, ColDepMinutes),
		series.New(arrH, series.Int, ColArrivalHour),
		series.New(arrM, series.Int, ColArrivalMinutes),
	)
}
