package domain

// Classification is the ephemeral result of analyzing one problem
// description. It is recomputed per message and never persisted.
type Classification struct {
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Severity      Severity `json:"severity"`
	Confidence    float64  `json:"confidence"`
	RequiresHuman bool     `json:"requires_human"`
}
