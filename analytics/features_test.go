package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shoplens/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMondayWeekday(t *testing.T) {
	assert.Equal(t, 0, mondayWeekday(day(2026, time.March, 2))) // Monday
	assert.Equal(t, 4, mondayWeekday(day(2026, time.March, 6))) // Friday
	assert.Equal(t, 5, mondayWeekday(day(2026, time.March, 7))) // Saturday
	assert.Equal(t, 6, mondayWeekday(day(2026, time.March, 8))) // Sunday
}

func TestFeatureVectorWidthAndCalendar(t *testing.T) {
	// Saturday the 28th: weekend and month-end both set
	v := featureVector(day(2026, time.March, 28), 100, 90, 95)
	assert.Len(t, v, FeatureCount)
	assert.Equal(t, 5.0, v[0]) // Saturday
	assert.Equal(t, 3.0, v[1])
	assert.Equal(t, 28.0, v[2])
	assert.Equal(t, 1.0, v[3])
	assert.Equal(t, 1.0, v[4])
	assert.Equal(t, []float64{100, 90, 95}, v[5:])

	// Wednesday the 11th: neither flag
	v = featureVector(day(2026, time.March, 11), 0, 0, 0)
	assert.Equal(t, 0.0, v[3])
	assert.Equal(t, 0.0, v[4])
}

func TestBuildFeaturesLagsAndCompleteness(t *testing.T) {
	totals := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	daily := make([]models.DailyTotal, len(totals))
	for i, v := range totals {
		daily[i] = models.DailyTotal{Date: day(2026, time.March, i+1), Total: dec(v)}
	}

	points := BuildFeatures(daily)
	assert.Len(t, points, 10)

	// first row has no lag_1
	assert.False(t, points[0].Complete)
	assert.Equal(t, 0.0, points[0].Lag1)

	// second row: lag_1 present, lag_7 falls back to lag_1, ma_7 still missing
	assert.False(t, points[1].Complete)
	assert.Equal(t, 10.0, points[1].Lag1)
	assert.Equal(t, 10.0, points[1].Lag7)

	// seventh row (index 6): first complete row
	assert.True(t, points[6].Complete)
	assert.Equal(t, 60.0, points[6].Lag1)
	assert.Equal(t, 60.0, points[6].Lag7) // still under 7 preceding rows
	assert.InDelta(t, 40.0, points[6].MovingAvg7, 1e-9)

	// eighth row (index 7): true 7-back lag available
	assert.True(t, points[7].Complete)
	assert.Equal(t, 10.0, points[7].Lag7)

	X, y := TrainingMatrix(points)
	assert.Len(t, X, 4)
	assert.Equal(t, []float64{70, 80, 90, 100}, y)
	for _, row := range X {
		assert.Len(t, row, FeatureCount)
	}
}

func TestBuildFeaturesSortsInput(t *testing.T) {
	daily := []models.DailyTotal{
		{Date: day(2026, time.March, 3), Total: dec(30)},
		{Date: day(2026, time.March, 1), Total: dec(10)},
		{Date: day(2026, time.March, 2), Total: dec(20)},
	}
	points := BuildFeatures(daily)
	assert.Equal(t, 10.0, points[0].Total)
	assert.Equal(t, 20.0, points[1].Total)
	assert.Equal(t, 10.0, points[1].Lag1)
	assert.Equal(t, 20.0, points[2].Lag1)
}

func TestBuildFeaturesEmpty(t *testing.T) {
	assert.Nil(t, BuildFeatures(nil))
}
