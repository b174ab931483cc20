package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shoplens/logger"
	"shoplens/models"
	"shoplens/repository"
)

// Segmentation window and labeling thresholds.
const (
	segmentWindowDays     = 90
	championRecencyDays   = 30
	championMinFrequency  = 3
	loyalRecencyDays      = 60
	minCustomersToCluster = 3
)

// CustomerSegmenter computes RFM metrics per customer over the trailing
// 90-day window and clusters them into named behavioral segments.
type CustomerSegmenter struct {
	repo repository.SalesReader
	now  func() time.Time
}

// NewCustomerSegmenter wires a segmenter over a sales reader.
func NewCustomerSegmenter(repo repository.SalesReader) *CustomerSegmenter {
	return &CustomerSegmenter{repo: repo, now: time.Now}
}

// Segment returns the shop's customer segments. With fewer than three
// distinct customers each customer gets an individual "Regular Customer"
// segment (first-appearance order, capped at three); otherwise customers are
// partitioned into exactly three clusters over standardized RFM metrics.
func (s *CustomerSegmenter) Segment(ctx context.Context, shopID string) []models.CustomerSegment {
	today := s.now()
	bills, err := s.repo.ListCustomerBills(ctx, shopID, today.AddDate(0, 0, -segmentWindowDays), today)
	if err != nil {
		logger.Warn("⚠️ [SEGMENTS] failed to read customer bills",
			zap.String("shop", shopID), zap.Error(err))
		return []models.CustomerSegment{}
	}
	if len(bills) == 0 {
		return []models.CustomerSegment{}
	}

	rfm := computeRFM(bills, today)
	if len(rfm) < minCustomersToCluster {
		return simpleSegments(rfm)
	}

	points := make([][]float64, len(rfm))
	for i, m := range rfm {
		points[i] = []float64{m.RecencyDays, m.Frequency, m.Monetary}
	}
	assign := kMeans(standardizeColumns(points), segmentClusters, kmeansSeed)

	// cluster indices 0..2 evaluated in fixed order; ties in labeling resolve
	// by this order, not by magnitude
	segments := make([]models.CustomerSegment, 0, segmentClusters)
	for cluster := 0; cluster < segmentClusters; cluster++ {
		var members []models.RFMMetrics
		for i, c := range assign {
			if c == cluster {
				members = append(members, rfm[i])
			}
		}

		seg := models.CustomerSegment{
			SegmentID:     cluster,
			CustomerCount: len(members),
			Customers:     make([]string, 0, len(members)),
		}
		var recency, frequency, monetary []float64
		for _, m := range members {
			seg.Customers = append(seg.Customers, m.CustomerName)
			recency = append(recency, m.RecencyDays)
			frequency = append(frequency, m.Frequency)
			monetary = append(monetary, m.Monetary)
		}
		seg.AvgRecencyDays = round1(mean(recency))
		seg.AvgFrequency = round1(mean(frequency))
		seg.AvgMonetary = round2(mean(monetary))
		seg.Name = labelSegment(seg, monetary)

		segments = append(segments, seg)
	}
	return segments
}

// labelSegment names a cluster from its aggregate characteristics.
func labelSegment(seg models.CustomerSegment, monetary []float64) string {
	switch {
	case seg.AvgRecencyDays <= championRecencyDays && seg.AvgFrequency >= championMinFrequency:
		return models.SegmentChampions
	case len(monetary) > 0 && seg.AvgRecencyDays <= loyalRecencyDays && seg.AvgMonetary >= median(monetary):
		return models.SegmentLoyal
	default:
		return models.SegmentAtRisk
	}
}

// computeRFM aggregates bills into per-customer Recency/Frequency/Monetary
// metrics, preserving first-appearance order.
func computeRFM(bills []models.CustomerBill, today time.Time) []models.RFMMetrics {
	index := make(map[string]int)
	var metrics []models.RFMMetrics
	lastPurchase := make(map[string]time.Time)

	for _, b := range bills {
		i, ok := index[b.CustomerName]
		if !ok {
			i = len(metrics)
			index[b.CustomerName] = i
			metrics = append(metrics, models.RFMMetrics{CustomerName: b.CustomerName})
		}
		metrics[i].Frequency++
		metrics[i].Monetary += b.Total.InexactFloat64()
		if b.Date.After(lastPurchase[b.CustomerName]) {
			lastPurchase[b.CustomerName] = b.Date
		}
	}

	for i := range metrics {
		last := lastPurchase[metrics[i].CustomerName]
		metrics[i].RecencyDays = float64(int(today.Sub(last).Hours() / 24))
		metrics[i].Monetary = round2(metrics[i].Monetary)
	}
	return metrics
}

// simpleSegments emits one "Regular Customer" segment per customer for small
// datasets, order preserved, capped at three.
func simpleSegments(rfm []models.RFMMetrics) []models.CustomerSegment {
	segments := make([]models.CustomerSegment, 0, len(rfm))
	for _, m := range rfm {
		segments = append(segments, models.CustomerSegment{
			SegmentID:      0,
			Name:           models.SegmentRegular,
			Customers:      []string{m.CustomerName},
			CustomerCount:  1,
			AvgRecencyDays: m.RecencyDays,
			AvgFrequency:   m.Frequency,
			AvgMonetary:    m.Monetary,
		})
		if len(segments) == 3 {
			break
		}
	}
	return segments
}
