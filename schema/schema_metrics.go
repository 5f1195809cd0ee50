package schema

// WeightEntry is one row of the estimator weight table for display purposes.
type WeightEntry struct {
	Key         WeightKey `json:"key"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	Default     float64   `json:"default"`
	Unit        string    `json:"unit"`
}

// WeightsRenderModel contains all processed data needed for displaying the weight table.
type WeightsRenderModel struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Formula     string        `json:"formula"`
	Weights     []WeightEntry `json:"weights"`
}
