package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"

	"PricingIntelligence/src/config"
	"PricingIntelligence/src/model"
	"PricingIntelligence/src/processor"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

// PrintOverview writes the shape, column list and summary statistics.
func PrintOverview(w io.Writer, ov processor.Overview, display config.DisplayConfig) {
	heading(w, "Dataset overview")
	fmt.Fprintf(w, "rows: %d  columns: %d\n", ov.Rows, ov.Cols)

	cols := ov.Columns
	hidden := 0
	if !display.ShowAllColumns && display.MaxColumns > 0 && len(cols) > display.MaxColumns {
		hidden = len(cols) - display.MaxColumns
		cols = cols[:display.MaxColumns]
	}
	fmt.Fprintf(w, "columns: %s", strings.Join(cols, ", "))
	if hidden > 0 {
		fmt.Fprintf(w, " ... (+%d)", hidden)
	}
	fmt.Fprintln(w)

	if ov.Summary.Nrow() > 0 {
		fmt.Fprintln(w)
		PrintFrame(w, ov.Summary, display)
	}
}

// PrintFrame renders df as an aligned table limited by display.
func PrintFrame(w io.Writer, df dataframe.DataFrame, display config.DisplayConfig) {
	names := df.Names()
	hiddenCols := 0
	if !display.ShowAllColumns && display.MaxColumns > 0 && len(names) > display.MaxColumns {
		hiddenCols = len(names) - display.MaxColumns
		names = names[:display.MaxColumns]
	}
	rows := df.Nrow()
	if display.MaxRows > 0 && rows > display.MaxRows {
		rows = display.MaxRows
	}

	tw := newTable(w)
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for i := 0; i < rows; i++ {
		cells := make([]string, len(names))
		for j, n := range names {
			cells[j] = df.Col(n).Elem(i).String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	if rows < df.Nrow() {
		fmt.Fprintf(w, "... %d more rows\n", df.Nrow()-rows)
	}
	if hiddenCols > 0 {
		fmt.Fprintf(w, "... %d more columns\n", hiddenCols)
	}
}

// PrintAnalysis writes every analysis table.
func PrintAnalysis(w io.Writer, a *processor.Analysis, display config.DisplayConfig) {
	if a == nil {
		return
	}

	heading(w, "Price by number of stops")
	tw := newTable(w)
	fmt.Fprintln(tw, "stops\tmean\tmedian\tcount")
	for _, s := range a.ByStops {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", s.Stops, num(s.Mean, 2), num(s.Median, 2), s.Count)
	}
	tw.Flush()

	heading(w, "Correlation")
	tw = newTable(w)
	fmt.Fprintln(tw, "\t"+strings.Join(a.Correlation.Columns, "\t"))
	for i, row := range a.Correlation.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = num(v, 3)
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.Correlation.Columns[i], strings.Join(cells, "\t"))
	}
	tw.Flush()

	heading(w, "Routes with the highest price variance")
	routes := a.RouteVariance
	if display.TopRoutes > 0 && len(routes) > display.TopRoutes {
		routes = routes[:display.TopRoutes]
	}
	tw = newTable(w)
	fmt.Fprintln(tw, "route\tmean\tstd\tcount")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.Route, num(r.Mean, 2), num(r.Std, 2), r.Count)
	}
	tw.Flush()

	heading(w, "Airline prices on "+a.SampleRoute)
	if len(a.SampleRoutePrices) == 0 {
		fmt.Fprintln(w, "no flights on this route")
	} else {
		tw = newTable(w)
		fmt.Fprintln(tw, "airline\tmean\tcount")
		for _, p := range a.SampleRoutePrices {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", p.Airline, num(p.Mean, 2), p.Count)
		}
		tw.Flush()
	}

	heading(w, "Airline price relative to route average")
	tw = newTable(w)
	fmt.Fprintln(tw, "airline\tmean diff\tstd\tcount")
	for _, r := range a.Relative {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.Airline, num(r.Mean, 2), num(r.Std, 2), r.Count)
	}
	tw.Flush()

	heading(w, "Share of flights above route average")
	tw = newTable(w)
	fmt.Fprintln(tw, "airline\tpercent\tcount")
	for _, r := range a.AboveRouteAverage {
		fmt.Fprintf(tw, "%s\t%s%%\t%d\n", r.Airline, num(r.Percent, 1), r.Count)
	}
	tw.Flush()
}

// PrintModel writes the held-out metrics and the leading importances.
func PrintModel(w io.Writer, mr *processor.ModelResult, display config.DisplayConfig) {
	if mr == nil {
		return
	}
	heading(w, "Model evaluation")
	fmt.Fprintf(w, "train rows: %d  test rows: %d\n", mr.TrainRows, mr.TestRows)
	fmt.Fprintf(w, "R2: %.4f\nMAE: %.2f\nRMSE: %.2f\n", mr.Metrics.R2, mr.Metrics.MAE, mr.Metrics.RMSE)

	heading(w, "Feature importance")
	tw := newTable(w)
	fmt.Fprintln(tw, "rank\tfeature\timportance")
	for i, fi := range model.TopN(mr.Importances, display.TopFeatures) {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\n", i+1, fi.Feature, fi.Importance)
	}
	tw.Flush()
}
