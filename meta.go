package flagkit

// VariationMeta carries display metadata about a single experiment
// variation (spec §3).
type VariationMeta struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Passthrough bool   `json:"passthrough"`
}
