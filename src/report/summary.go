package report

import (
	"fmt"

	"PricingIntelligence/src/processor"
)

// ExecutiveSummary condenses a run into a few plain sentences for mail and
// chat delivery.
func ExecutiveSummary(result *processor.RunResult) []string {
	if result == nil {
		return nil
	}
	var lines []string

	if a := result.Analysis; a != nil {
		if n := len(a.ByStops); n > 1 {
			lo, hi := a.ByStops[0], a.ByStops[n-1]
			line := fmt.Sprintf("Flights with %d stops average %.0f against %.0f for %d stops",
				hi.Stops, hi.Mean, lo.Mean, lo.Stops)
			if lo.Mean > 0 {
				line += fmt.Sprintf(" (%+.0f%%)", (hi.Mean/lo.Mean-1)*100)
			}
			lines = append(lines, line+".")
		}

		cm := a.Correlation
		dur := cm.At(processor.ColPrice, processor.ColTotalDurationMinutes)
		stops := cm.At(processor.ColPrice, processor.ColTotalStopsClean)
		lines = append(lines, fmt.Sprintf("Price correlates %.2f with stops and %.2f with duration.", stops, dur))

		if n := len(a.Relative); n > 1 {
			top, bottom := a.Relative[0], a.Relative[n-1]
			lines = append(lines, fmt.Sprintf("%s prices %+.0f against the route average; %s %+.0f.",
				top.Airline, top.Mean, bottom.Airline, bottom.Mean))
		}
	}

	if m := result.Model; m != nil {
		line := fmt.Sprintf("Random forest R2 %.3f, MAE %.0f on %d held-out flights.",
			m.Metrics.R2, m.Metrics.MAE, m.Metrics.N)
		lines = append(lines, line)
		if len(m.Importances) > 0 {
			lines = append(lines, fmt.Sprintf("Strongest driver: %s (%.1f%% of importance).",
				m.Importances[0].Feature, m.Importances[0].Importance*100))
		}
	}

	if result.Dropped > 0 {
		lines = append(lines, fmt.Sprintf("%d rows were excluded for missing stops or route.", result.Dropped))
	}
	return lines
}
