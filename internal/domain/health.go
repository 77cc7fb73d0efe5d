package domain

// HealthStatus is returned by the operational health endpoints.
type HealthStatus struct {
	Status  string `json:"status"`
	Store   string `json:"store,omitempty"`
	Version string `json:"version,omitempty"`
}

// ProcessorHealth is an aggregated view of processor-boundary metrics,
// served on the operational metrics endpoint.
type ProcessorHealth struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	TopUps        int64   `json:"topups"`
	Payouts       int64   `json:"payouts"`
	CardsIssued   int64   `json:"cards_issued"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Period        string  `json:"period"`
}
