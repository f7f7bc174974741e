package governance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tier is the static risk classification of a tool. Medium and high
// tiers require human approval before a step may execute.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// RequiresApproval reports whether a step of this tier must be gated on
// a human decision.
func (t Tier) RequiresApproval() bool {
	return t >= TierMedium
}

// Classifier maps tool names to risk tiers. The mapping is fixed at
// startup and never inferred from parameters at runtime.
type Classifier struct {
	tiers map[string]Tier
}

// NewClassifier returns a classifier with the built-in table.
func NewClassifier() *Classifier {
	return &Classifier{
		tiers: map[string]Tier{
			"write_file":          TierHigh,
			"delete_file":         TierHigh,
			"run_command":         TierHigh,
			"create_file":         TierHigh,
			"update_package_json": TierMedium,
			"init_project":        TierMedium,
		},
	}
}

// Classify returns the tier for a tool name. Unlisted tools are low.
func (c *Classifier) Classify(tool string) Tier {
	if t, ok := c.tiers[tool]; ok {
		return t
	}
	return TierLow
}

type tierFile struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// LoadOverrides merges tier assignments from a YAML file into the
// built-in table. Listing a tool under low removes any elevated tier.
func (c *Classifier) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read risk table: %w", err)
	}

	var tf tierFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("failed to parse risk table: %w", err)
	}

	for _, name := range tf.High {
		c.tiers[name] = TierHigh
	}
	for _, name := range tf.Medium {
		c.tiers[name] = TierMedium
	}
	for _, name := range tf.Low {
		delete(c.tiers, name)
	}
	return nil
}
