package dashboard

import (
	"math"
	"time"

	"github.com/dan/aero/internal/models"
)

// Stats summarises the current reading set. Recomputed on every render;
// O(n) is fine at dashboard scale.
type Stats struct {
	AvgCO2  float64
	MaxCO2  float64
	AvgTemp float64
	MaxTemp float64
	Count   int
}

// ComputeStats derives averages and maxima over the collection. An empty
// collection yields all zeros, never NaN from a zero division.
func ComputeStats(readings []models.Reading) Stats {
	s := Stats{Count: len(readings)}
	if len(readings) == 0 {
		return s
	}

	var sumCO2, sumTemp float64
	for _, r := range readings {
		sumCO2 += r.CO2
		sumTemp += r.Temperature
		if r.CO2 > s.MaxCO2 {
			s.MaxCO2 = r.CO2
		}
		if r.Temperature > s.MaxTemp {
			s.MaxTemp = r.Temperature
		}
	}
	n := float64(len(readings))
	s.AvgCO2 = round2(sumCO2 / n)
	s.AvgTemp = round2(sumTemp / n)
	s.MaxCO2 = round2(s.MaxCO2)
	s.MaxTemp = round2(s.MaxTemp)
	return s
}

// ChartPoint is the tuple handed to the charting layer, one per reading,
// in collection order.
type ChartPoint struct {
	Label       string  `json:"label"`     // short axis label
	CO2         float64 `json:"co2"`       // rounded to 2 decimals
	Temperature float64 `json:"temperature"`
	FullTime    string  `json:"full_time"` // tooltip timestamp
}

// ChartPoints maps the reading collection to display tuples, preserving
// server order and rounding numeric fields to two decimals.
func ChartPoints(readings []models.Reading) []ChartPoint {
	points := make([]ChartPoint, 0, len(readings))
	for _, r := range readings {
		points = append(points, ChartPoint{
			Label:       r.Timestamp.Format("02 Jan 15:04"),
			CO2:         round2(r.CO2),
			Temperature: round2(r.Temperature),
			FullTime:    r.Timestamp.Format(time.RFC1123),
		})
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
