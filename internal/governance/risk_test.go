package governance

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifier_StaticTable(t *testing.T) {
	c := NewClassifier()

	cases := map[string]Tier{
		"write_file":          TierHigh,
		"delete_file":         TierHigh,
		"run_command":         TierHigh,
		"create_file":         TierHigh,
		"update_package_json": TierMedium,
		"init_project":        TierMedium,
		"read_file":           TierLow,
		"list_directory":      TierLow,
		"web_search":          TierLow,
		"never_registered":    TierLow,
	}

	for tool, want := range cases {
		if got := c.Classify(tool); got != want {
			t.Errorf("Classify(%q) = %s, want %s", tool, got, want)
		}
	}
}

func TestTier_RequiresApproval(t *testing.T) {
	if TierLow.RequiresApproval() {
		t.Error("low tier should not require approval")
	}
	if !TierMedium.RequiresApproval() {
		t.Error("medium tier should require approval")
	}
	if !TierHigh.RequiresApproval() {
		t.Error("high tier should require approval")
	}
}

func TestClassifier_LoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "risk.yaml")
	content := "high:\n  - browser\nmedium:\n  - fetch_url\nlow:\n  - update_package_json\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier()
	if err := c.LoadOverrides(path); err != nil {
		t.Fatalf("LoadOverrides failed: %v", err)
	}

	if got := c.Classify("browser"); got != TierHigh {
		t.Errorf("browser = %s, want high", got)
	}
	if got := c.Classify("fetch_url"); got != TierMedium {
		t.Errorf("fetch_url = %s, want medium", got)
	}
	if got := c.Classify("update_package_json"); got != TierLow {
		t.Errorf("update_package_json = %s, want low after override", got)
	}
	// Untouched entries keep the built-in tier.
	if got := c.Classify("run_command"); got != TierHigh {
		t.Errorf("run_command = %s, want high", got)
	}
}

func TestClassifier_LoadOverridesMissingFile(t *testing.T) {
	c := NewClassifier()
	if err := c.LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
