package features

import (
	"math"
	"time"
)

type calendar struct {
	Month      float64
	DayOfWeek  float64
	DayOfMonth float64
	IsWeekend  float64
	MonthSin   float64
	MonthCos   float64
	DowSin     float64
	DowCos     float64
}

// calendarFeatures derives the date terms for one observation.
// Month and day-of-week also get sine/cosine encodings so the model
// sees December and January as neighbors.
func calendarFeatures(date time.Time) calendar {
	month := float64(date.Month())
	dow := float64(date.Weekday()) // Sunday = 0

	var weekend float64
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		weekend = 1
	}

	return calendar{
		Month:      month,
		DayOfWeek:  dow,
		DayOfMonth: float64(date.Day()),
		IsWeekend:  weekend,
		MonthSin:   math.Sin(2 * math.Pi * month / 12),
		MonthCos:   math.Cos(2 * math.Pi * month / 12),
		DowSin:     math.Sin(2 * math.Pi * dow / 7),
		DowCos:     math.Cos(2 * math.Pi * dow / 7),
	}
}
