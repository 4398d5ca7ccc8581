package report

// Report is the printable/serializable form of one evaluation.
type Report struct {
	Name    string       `json:"name,omitempty"`
	RunID   string       `json:"run_id"`
	Config  ReportConfig `json:"config"`
	Funnel  FunnelEntry  `json:"funnel"`
	Buckets []BucketRow  `json:"buckets"`
	// Excluded lists the buckets dropped for insufficient sample size, so
	// the exclusion is visible rather than silent.
	Excluded      []ExcludedRow    `json:"excluded"`
	Opportunities []OpportunityRow `json:"opportunities"`
	ReferenceNDCG float64          `json:"reference_ndcg"`
	TotalUplift   float64          `json:"total_uplift_usd"`
	Model         string           `json:"model"`
}

type ReportConfig struct {
	Policy        string    `json:"policy"`
	Cutoffs       []int     `json:"cutoffs"`
	PrimaryK      int       `json:"primary_k"`
	Dimension     string    `json:"dimension"`
	MinSampleSize int       `json:"min_sample_size"`
	Elasticity    float64   `json:"elasticity"`
	Window        string    `json:"attribution_window"`
	Targets       []float64 `json:"targets"`
	PeriodDays    int       `json:"period_days"`
}

type FunnelEntry struct {
	Sessions          int             `json:"sessions"`
	Impressions       int             `json:"impressions"`
	Clicks            int             `json:"clicks"`
	Purchases         int             `json:"purchases"`
	CTRPct            float64         `json:"ctr_pct"`
	PTRPct            float64         `json:"ptr_pct"`
	ConversionPct     float64         `json:"conversion_pct"`
	MeanNDCG          map[int]float64 `json:"mean_ndcg"`
	MedianNDCG        map[int]float64 `json:"median_ndcg"`
	RecallClickPct    map[int]float64 `json:"recall_click_pct"`
	RecallPurchasePct map[int]float64 `json:"recall_purchase_pct"`
	NoSignalSessions  map[int]int     `json:"no_signal_sessions"`
	MalformedRows     int             `json:"malformed_rows"`
	Collisions        int             `json:"position_collisions"`
	OrphanedRows      int             `json:"orphaned_rows"`
	Revenue           float64         `json:"revenue_usd"`
}

type BucketRow struct {
	Value        string  `json:"value"`
	Sessions     int     `json:"sessions"`
	MeanNDCG     float64 `json:"mean_ndcg"`
	MedianNDCG   float64 `json:"median_ndcg"`
	DeviationPct float64 `json:"deviation_pct"`
	Revenue      float64 `json:"revenue_usd"`
}

type ExcludedRow struct {
	Value    string `json:"value"`
	Sessions int    `json:"sessions"`
}

type OpportunityRow struct {
	Value            string  `json:"value"`
	NDCG             float64 `json:"ndcg"`
	GapPct           float64 `json:"gap_pct"`
	Revenue          float64 `json:"revenue_usd"`
	Uplift           float64 `json:"uplift_usd"`
	UpliftAnnualized float64 `json:"uplift_annualized_usd"`
}
