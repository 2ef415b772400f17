package generation

import "time"

type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// State describes where a session stands in question generation.
type State string

const (
	StateNoSession   State = "no_session"
	StateNoQuestions State = "no_questions"
	StateGenerating  State = "generating"
	StateReady       State = "ready"
)

// Draft is one extracted question before persistence: sequence assigned,
// text fully rendered, enrichment applied.
type Draft struct {
	Sequence         int
	Question         string
	CorrectAnswer    string
	Scenario         string
	CodeSnippetImage string
	ExternalItemID   int
}

// VariantConfig defines how a quiz variant carves the three tiers into the
// ten presentation positions. PreferredIDs, when set, lists the external item
// ids a tier position should prefer; the ranges are operationally tuned and
// therefore configuration, never constants in code.
type VariantConfig struct {
	Name         string         `json:"name"`
	EasyCount    int            `json:"easy_count"`
	MediumCount  int            `json:"medium_count"`
	HardCount    int            `json:"hard_count"`
	PreferredIDs map[Tier][]int `json:"preferred_ids,omitempty"`
	CodeAware    bool           `json:"code_aware"`
	ProgressBar  bool           `json:"progress_bar"`
}

func (v VariantConfig) Total() int {
	return v.EasyCount + v.MediumCount + v.HardCount
}

// FirstMediumSeq is the sequence position of the first medium-tier question,
// one of the two positions that may carry scenario text.
func (v VariantConfig) FirstMediumSeq() int {
	return v.EasyCount + 1
}

// FirstHardSeq is the sequence position of the first hard-tier question.
func (v VariantConfig) FirstHardSeq() int {
	return v.EasyCount + v.MediumCount + 1
}

// Config holds the generation tunables. Timeout and interval track the
// upstream generator's documented behavior and shift release to release, so
// they come from configuration.
type Config struct {
	PollTimeout  time.Duration            `json:"poll_timeout"`
	PollInterval time.Duration            `json:"poll_interval"`
	Variants     map[string]VariantConfig `json:"variants"`
}

// VariantFor returns the variant for a subject, falling back to the base
// variant when the subject has no dedicated one.
func (c Config) VariantFor(subject string) VariantConfig {
	if v, ok := c.Variants[subject]; ok {
		return v
	}
	return c.Variants["default"]
}

// DefaultConfig mirrors the upstream generator's documented defaults: a 90s
// generation window polled every 3s, a 5/3/2 tier split, and the
// cybersecurity variant's preferred id ranges.
func DefaultConfig() Config {
	return Config{
		PollTimeout:  90 * time.Second,
		PollInterval: 3 * time.Second,
		Variants: map[string]VariantConfig{
			"default": {
				Name:        "default",
				EasyCount:   5,
				MediumCount: 3,
				HardCount:   2,
				ProgressBar: true,
			},
			"cybersecurity": {
				Name:        "cybersecurity",
				EasyCount:   5,
				MediumCount: 3,
				HardCount:   2,
				PreferredIDs: map[Tier][]int{
					TierEasy:   {1, 2, 3, 4},
					TierMedium: {11, 12, 13},
					TierHard:   {17, 18, 19},
				},
				CodeAware: true,
			},
		},
	}
}
