package analytics

import (
	"sort"
	"time"

	"shoplens/models"
)

// FeatureCount is the fixed width of the model feature vector. The scaler and
// the forest both reject any other width before prediction.
const FeatureCount = 8

// minTrainingDays is the minimum size of the daily sales series required to
// attempt the learned model path at all.
const minTrainingDays = 10

// DailySalesPoint is one row of the engineered feature table: a calendar
// day's total plus the calendar, lag, and rolling features derived from the
// rows before it.
type DailySalesPoint struct {
	Date        time.Time
	Total       float64
	DayOfWeek   int // Monday=0 .. Sunday=6
	Month       int
	DayOfMonth  int
	IsWeekend   bool
	IsMonthEnd  bool
	Lag1        float64
	Lag7        float64
	MovingAvg7  float64
	// Complete reports whether every lag/rolling input was available. Rows
	// with Complete=false are excluded from model fitting.
	Complete bool
}

// Vector returns the point's features in the fixed model order.
func (p DailySalesPoint) Vector() []float64 {
	return featureVector(p.Date, p.Lag1, p.Lag7, p.MovingAvg7)
}

// featureVector assembles the 8 model features for a date and its lag inputs.
// Order: day_of_week, month, day_of_month, is_weekend, is_month_end,
// lag_1, lag_7, moving_avg_7.
func featureVector(date time.Time, lag1, lag7, ma7 float64) []float64 {
	dow := mondayWeekday(date)
	v := make([]float64, FeatureCount)
	v[0] = float64(dow)
	v[1] = float64(date.Month())
	v[2] = float64(date.Day())
	if dow == 5 || dow == 6 {
		v[3] = 1
	}
	if date.Day() > 25 {
		v[4] = 1
	}
	v[5] = lag1
	v[6] = lag7
	v[7] = ma7
	return v
}

// mondayWeekday converts Go's Sunday-first weekday to Monday=0 .. Sunday=6.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// BuildFeatures turns a shop's daily sales series into the feature table used
// for model fitting. Input rows are aggregated one-per-day already; missing
// days stay absent. The series is sorted ascending and lags are positional
// (rows back in the sorted table, not calendar days). Pure transform.
func BuildFeatures(daily []models.DailyTotal) []DailySalesPoint {
	if len(daily) == 0 {
		return nil
	}

	sorted := make([]models.DailyTotal, len(daily))
	copy(sorted, daily)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	points := make([]DailySalesPoint, 0, len(sorted))
	totals := make([]float64, len(sorted))
	for i, d := range sorted {
		totals[i] = d.Total.InexactFloat64()
	}

	for i, d := range sorted {
		p := DailySalesPoint{
			Date:       d.Date,
			Total:      totals[i],
			DayOfWeek:  mondayWeekday(d.Date),
			Month:      int(d.Date.Month()),
			DayOfMonth: d.Date.Day(),
		}
		p.IsWeekend = p.DayOfWeek == 5 || p.DayOfWeek == 6
		p.IsMonthEnd = p.DayOfMonth > 25

		complete := true
		if i >= 1 {
			p.Lag1 = totals[i-1]
		} else {
			complete = false
		}
		if i >= 7 {
			p.Lag7 = totals[i-7]
		} else {
			// fewer than 7 preceding rows: fall back to lag_1
			p.Lag7 = p.Lag1
		}
		if i >= 6 {
			p.MovingAvg7 = mean(totals[i-6 : i+1])
		} else {
			complete = false
		}
		p.Complete = complete
		points = append(points, p)
	}
	return points
}

// TrainingMatrix extracts the complete rows as a feature matrix and target
// vector. Every returned row has exactly FeatureCount columns.
func TrainingMatrix(points []DailySalesPoint) (X [][]float64, y []float64) {
	for _, p := range points {
		if !p.Complete {
			continue
		}
		X = append(X, p.Vector())
		y = append(y, p.Total)
	}
	return X, y
}
