package domain

// MetricsSummary is the operational snapshot served by
// GET /v1/metrics/summary. Values are cumulative since process start.
type MetricsSummary struct {
	TotalRequests    int64   `json:"total_requests"`
	ErrorRate        float64 `json:"error_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	ExpensesRecorded int64   `json:"expenses_recorded"`
	Reconciliations  int64   `json:"reconciliations"`
	Period           string  `json:"period"`
}
