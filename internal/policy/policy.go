package policy

// Injection is one curated prompt fragment within a policy. Variants map
// 1:1 onto injections; an empty Text leaves the base prompt untouched.
type Injection struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Policy is a built-in recipe for expanding one prompt into labeled variants.
type Policy struct {
	ID           string      `json:"policy_id"`
	Label        string      `json:"label"`
	DefaultCount int         `json:"default_count"`
	Injections   []Injection `json:"injections"`
}

// GenParams carries the generation parameters duplicated onto every variant
// so each one is self-contained.
type GenParams struct {
	Seed      int64   `json:"seed"`
	Steps     int     `json:"steps"`
	CFG       float64 `json:"cfg"`
	Sampler   string  `json:"sampler"`
	Scheduler string  `json:"scheduler"`
	Denoise   float64 `json:"denoise"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Variant is one expanded prompt/seed slot.
type Variant struct {
	Index     int       `json:"index"`
	Label     string    `json:"label"`
	Positive  string    `json:"positive"`
	Negative  string    `json:"negative"`
	GenParams GenParams `json:"gen_params"`
}

// VariantList is the engine's output payload.
type VariantList struct {
	FormatVersion string    `json:"format_version"`
	PolicyID      string    `json:"policy_id"`
	BaseSeed      int64     `json:"base_seed"`
	Variants      []Variant `json:"variants"`
}

// Overrides optionally replaces individual generation parameters for every
// variant. Nil fields fall through to the request values.
type Overrides struct {
	Steps     *int
	CFG       *float64
	Sampler   *string
	Scheduler *string
	Denoise   *float64
	Width     *int
	Height    *int
}

// Request describes one expansion.
type Request struct {
	PositivePrompt string
	NegativePrompt string
	PolicyID       string
	Count          int
	BaseSeed       int64
	Width          int
	Height         int
	Steps          int
	CFG            float64
	Sampler        string
	Scheduler      string
	Denoise        float64
	Overrides      Overrides
}
