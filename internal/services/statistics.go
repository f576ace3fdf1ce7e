package services

import (
	"math"
	"strconv"

	"github.com/thomas-vilte/triagemate/internal/models"
)

// GenerateStatistics counts verdicts by type, priority and issue state. Failed
// items only count towards Total and Failed.
func GenerateStatistics(items []models.BatchItem) models.BatchStatistics {
	stats := models.BatchStatistics{
		Total:      len(items),
		Types:      make(map[string]int),
		Priorities: make(map[string]int),
		States:     make(map[string]int),
	}

	comments := 0
	analyzed := 0
	for _, item := range items {
		if item.Report == nil {
			stats.Failed++
			continue
		}
		analyzed++
		r := item.Report
		stats.Types[string(r.Verdict.Type)]++
		stats.Priorities[strconv.Itoa(r.Verdict.Priority())]++
		state := string(r.State)
		if state == "" {
			state = "unknown"
		}
		stats.States[state]++
		comments += r.Comments
		if r.Diagnostics.Fallback {
			stats.Fallbacks++
		}
		if r.Diagnostics.CacheHit {
			stats.CacheHits++
		}
	}

	if analyzed > 0 {
		stats.AvgComment = math.Round(float64(comments)/float64(analyzed)*100) / 100
	}
	return stats
}
