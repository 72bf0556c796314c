package model

// BatchStats counts the outcomes of one batch call.
type BatchStats struct {
	Total      int `json:"total"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Add accumulates o into s.
func (s *BatchStats) Add(o BatchStats) {
	s.Total += o.Total
	s.Success += o.Success
	s.Failed += o.Failed
	s.Skipped += o.Skipped
	s.Duplicates += o.Duplicates
}

// DateResult is the outcome of processing one calendar day.
type DateResult struct {
	Date      string     `json:"date"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Stats     BatchStats `json:"stats"`
	Processed int        `json:"disclosures_processed"`
}

// RangeSummary aggregates DateResults over a date range.
type RangeSummary struct {
	TotalDates        int          `json:"total_dates"`
	SuccessfulDates   int          `json:"successful_dates"`
	FailedDates       int          `json:"failed_dates"`
	TotalDisclosures  int          `json:"total_disclosures"`
	SuccessfulUploads int          `json:"successful_uploads"`
	FailedUploads     int          `json:"failed_uploads"`
	Errors            []DateResult `json:"errors,omitempty"`
}

// Summarize folds per-day results into a RangeSummary.
func Summarize(results []DateResult) RangeSummary {
	sum := RangeSummary{TotalDates: len(results)}
	for _, r := range results {
		if !r.Success {
			sum.FailedDates++
			sum.Errors = append(sum.Errors, r)
			continue
		}
		sum.SuccessfulDates++
		sum.TotalDisclosures += r.Stats.Total
		sum.SuccessfulUploads += r.Stats.Success
		sum.FailedUploads += r.Stats.Failed
	}
	return sum
}
