package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"shoplens/logger"
	"shoplens/models"
	"shoplens/repository"
)

// ErrInsufficientData reports that a shop's history is too thin for the
// requested algorithm. Always recoverable by a simpler fallback path; never
// surfaced as a hard failure to HTTP callers.
var ErrInsufficientData = errors.New("insufficient sales data")

// Forecaster windows and fallback constants, mirrored across predict and
// retrain so both see the same history.
const (
	trainWindowDays   = 90
	recentWindowDays  = 30
	defaultHorizon    = 7
	fallbackBaseSales = 1000.0
	weekendMultiplier = 1.2
	weekdayMultiplier = 0.9
)

// DemandForecaster predicts future daily sales for a shop. It fits a random
// forest over the engineered feature table and keeps the fitted model/scaler
// in a per-shop registry; when data is too thin or the learned path fails it
// degrades to a weighted moving-average forecast.
type DemandForecaster struct {
	repo     repository.SalesReader
	registry *ModelRegistry
	now      func() time.Time
}

// NewDemandForecaster wires a forecaster over a sales reader and a model
// registry.
func NewDemandForecaster(repo repository.SalesReader, registry *ModelRegistry) *DemandForecaster {
	return &DemandForecaster{repo: repo, registry: registry, now: time.Now}
}

// Predict returns one ForecastResult per future day, dates ascending starting
// tomorrow. It never fails: any internal error collapses the entire horizon
// to the statistical fallback.
func (f *DemandForecaster) Predict(ctx context.Context, shopID string, horizonDays int) []models.ForecastResult {
	if horizonDays <= 0 {
		horizonDays = defaultHorizon
	}

	art, err := f.loadOrTrain(ctx, shopID)
	if err != nil {
		if !errors.Is(err, ErrInsufficientData) {
			logger.Warn("⚠️ [FORECAST] learned path unavailable, using statistical fallback",
				zap.String("shop", shopID), zap.Error(err))
		}
		return f.statisticalFallback(ctx, shopID, horizonDays)
	}

	recent, err := f.recentDailyTotals(ctx, shopID)
	if err != nil || len(recent) == 0 {
		return f.statisticalFallback(ctx, shopID, horizonDays)
	}

	today := f.now()
	results := make([]models.ForecastResult, 0, horizonDays)

	for i := 1; i <= horizonDays; i++ {
		// chained one-step-ahead prediction is strictly sequential; bail out
		// to the fallback for the whole horizon if the budget expired
		if ctx.Err() != nil {
			return f.statisticalFallback(context.Background(), shopID, horizonDays)
		}

		date := today.AddDate(0, 0, i)
		vector := chainVector(date, recent)
		if len(vector) != FeatureCount {
			logger.Error("❌ [FORECAST] feature count mismatch", zap.Int("got", len(vector)))
			return f.statisticalFallback(ctx, shopID, horizonDays)
		}

		scaled, err := art.Scaler.Transform(vector)
		if err != nil {
			return f.statisticalFallback(ctx, shopID, horizonDays)
		}
		predicted, err := art.Model.Predict(scaled)
		if err != nil {
			return f.statisticalFallback(ctx, shopID, horizonDays)
		}
		if predicted < 0 {
			predicted = 0
		}

		results = append(results, models.ForecastResult{
			Date:            date,
			PredictedAmount: round2(predicted),
			Confidence:      forecastConfidence(recent),
			Method:          models.MethodML,
		})

		// predictions feed forward into the next day's lag features
		recent = append(recent, predicted)
		if len(recent) > recentWindowDays {
			recent = recent[1:]
		}
	}
	return results
}

// Retrain discards the shop's persisted model/scaler and refits from current
// data. Returns false without error when fewer than the minimum usable rows
// exist.
func (f *DemandForecaster) Retrain(ctx context.Context, shopID string) (bool, error) {
	lock := f.registry.LockShop(shopID)
	lock.Lock()
	defer lock.Unlock()

	if err := f.registry.Evict(shopID); err != nil {
		return false, err
	}
	_, err := f.train(ctx, shopID)
	if errors.Is(err, ErrInsufficientData) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logger.Info("✅ [FORECAST] model retrained", zap.String("shop", shopID))
	return true, nil
}

// ModelActive reports whether a trained artifact currently backs the shop.
func (f *DemandForecaster) ModelActive(shopID string) bool {
	return f.registry.HasModel(shopID)
}

// loadOrTrain returns the shop's artifact, training on demand. A corrupt
// artifact is discarded and retrained once.
func (f *DemandForecaster) loadOrTrain(ctx context.Context, shopID string) (*ModelArtifact, error) {
	art, err := f.registry.Load(shopID)
	if err == nil {
		return art, nil
	}
	if errors.Is(err, ErrArtifactCorrupt) {
		logger.Warn("⚠️ [FORECAST] discarding corrupt model artifact", zap.String("shop", shopID))
		if evictErr := f.registry.Evict(shopID); evictErr != nil {
			return nil, evictErr
		}
	} else if !errors.Is(err, ErrArtifactMissing) {
		return nil, err
	}

	lock := f.registry.LockShop(shopID)
	lock.Lock()
	defer lock.Unlock()

	// another request may have trained while we waited for the lock
	if art, err := f.registry.Load(shopID); err == nil {
		return art, nil
	}
	return f.train(ctx, shopID)
}

func (f *DemandForecaster) train(ctx context.Context, shopID string) (*ModelArtifact, error) {
	today := f.now()
	daily, err := f.repo.ListDailyTotals(ctx, shopID, today.AddDate(0, 0, -trainWindowDays), today)
	if err != nil {
		return nil, err
	}
	if len(daily) < minTrainingDays {
		return nil, ErrInsufficientData
	}

	X, y := TrainingMatrix(BuildFeatures(daily))
	if len(X) == 0 {
		return nil, ErrInsufficientData
	}

	scaler := &Scaler{}
	if err := scaler.Fit(X); err != nil {
		return nil, err
	}
	scaled, err := scaler.TransformAll(X)
	if err != nil {
		return nil, err
	}
	model, err := TrainForest(scaled, y)
	if err != nil {
		return nil, err
	}

	art := &ModelArtifact{Model: model, Scaler: scaler, LastTrainedAt: f.now()}
	if err := f.registry.Save(shopID, art); err != nil {
		return nil, err
	}
	logger.Info("✅ [FORECAST] model trained and saved",
		zap.String("shop", shopID), zap.Int("rows", len(X)))
	return art, nil
}

// chainVector builds the 8-feature vector for a future date from the rolling
// history of actual-or-predicted values.
func chainVector(date time.Time, recent []float64) []float64 {
	n := len(recent)
	var lag1, lag7, ma7 float64
	if n > 0 {
		lag1 = recent[n-1]
	}
	if n >= 7 {
		lag7 = recent[n-7]
		ma7 = mean(recent[n-7:])
	} else if n > 0 {
		lag7 = lag1
		ma7 = lag1
	}
	return featureVector(date, lag1, lag7, ma7)
}

// statisticalFallback predicts from the trailing 30-day mean with a weekday
// multiplier. Fully deterministic; used whenever the learned path cannot run.
func (f *DemandForecaster) statisticalFallback(ctx context.Context, shopID string, horizonDays int) []models.ForecastResult {
	avg := fallbackBaseSales
	if recent, err := f.recentDailyTotals(ctx, shopID); err == nil && len(recent) > 0 {
		avg = mean(recent)
	}

	today := f.now()
	results := make([]models.ForecastResult, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		date := today.AddDate(0, 0, i)
		multiplier := weekdayMultiplier
		if dow := mondayWeekday(date); dow >= 4 { // Friday through Sunday
			multiplier = weekendMultiplier
		}
		results = append(results, models.ForecastResult{
			Date:            date,
			PredictedAmount: round2(avg * multiplier),
			Confidence:      50,
			Method:          models.MethodStatistical,
		})
	}
	return results
}

func (f *DemandForecaster) recentDailyTotals(ctx context.Context, shopID string) ([]float64, error) {
	today := f.now()
	daily, err := f.repo.ListDailyTotals(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil {
		return nil, err
	}
	totals := make([]float64, len(daily))
	for i, d := range daily {
		totals[i] = d.Total.InexactFloat64()
	}
	return totals, nil
}

// forecastConfidence scores prediction confidence from the amount and
// stability of recent sales.
func forecastConfidence(recent []float64) int {
	switch n := len(recent); {
	case n < 7:
		return 40
	case n < 14:
		return 60
	case n < 30:
		return 75
	}

	m := mean(recent)
	cv := 1.0
	if m > 0 {
		cv = popVariance(recent) / m
	}
	switch {
	case cv < 0.3:
		return 90
	case cv < 0.5:
		return 80
	default:
		return 70
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
