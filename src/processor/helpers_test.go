package processor

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var rawHeader = []string{
	ColAirline, ColDateOfJourney, ColSource, ColDestination, ColRoute,
	ColDepTime, ColArrivalTime, ColDuration, ColTotalStops, ColPrice,
}

// loadRaw builds an all-string table, as read from a workbook.
func loadRaw(rows ...[]string) dataframe.DataFrame {
	records := append([][]string{rawHeader}, rows...)
	return dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
}

func fare(airline, route, stops, price string) []string {
	return []string{airline, "24/03/2019", "BLR", "DEL", route, "22:20", "01:10 22 Mar", "2h 50m", stops, price}
}

type routeDef struct {
	source, destination, route string
	stops                      int
	minutes                    int
}

var syntheticRoutes = []routeDef{
	{"Banglore", "New Delhi", "BLR → DEL", 0, 170},
	{"Kolkata", "Banglore", "CCU → IXR → BBI → BLR", 2, 445},
	{"Delhi", "Cochin", "DEL → BOM → COK", 1, 1140},
}

var syntheticAirlines = map[string]float64{
	"IndiGo":            4000,
	"Air India":         6500,
	"Jet Airways":       9000,
	"SpiceJet":          3800,
	"Multiple carriers": 7500,
}

// syntheticRecords builds n well-formed rows whose price depends on the
// airline, the stop count and the departure month.
func syntheticRecords(n int, seed int64) []FlightRecord {
	rnd := rand.New(rand.NewSource(seed))
	airlines := []string{"IndiGo", "Air India", "Jet Airways", "SpiceJet", "Multiple carriers"}

	out := make([]FlightRecord, n)
	for i := range out {
		airline := airlines[rnd.Intn(len(airlines))]
		r := syntheticRoutes[rnd.Intn(len(syntheticRoutes))]
		day, month := 1+rnd.Intn(28), 3+rnd.Intn(4)
		depH, depM := rnd.Intn(24), 5*rnd.Intn(12)
		arrival := (depH*60 + depM + r.minutes) % (24 * 60)

		stops := "non-stop"
		if r.stops == 1 {
			stops = "1 stop"
		} else if r.stops > 1 {
			stops = fmt.Sprintf("%d stops", r.stops)
		}

		price := syntheticAirlines[airline] + 1500*float64(r.stops) - 300*float64(month-3) + 200*rnd.NormFloat64()
		out[i] = FlightRecord{
			Airline:       airline,
			DateOfJourney: fmt.Sprintf("%d/%02d/2019", day, month),
			Source:        r.source,
			Destination:   r.destination,
			Route:         r.route,
			DepTime:       fmt.Sprintf("%02d:%02d", depH, depM),
			ArrivalTime:   fmt.Sprintf("%02d:%02d", arrival/60, arrival%60),
			Duration:      fmt.Sprintf("%dh %dm", r.minutes/60, r.minutes%60),
			TotalStops:    stops,
			Price:         strconv.FormatFloat(price, 'f', 2, 64),
		}
	}
	return out
}
