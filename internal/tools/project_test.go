package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newProjectRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	root := t.TempDir()
	r := NewRegistry()
	RegisterProject(r, NewWorkspace(root))
	return r, root
}

func readManifest(t *testing.T, root string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatal(err)
	}
	return manifest
}

func TestInitProject(t *testing.T) {
	r, root := newProjectRegistry(t)

	res := r.Execute(context.Background(), "init_project", map[string]any{"name": "demo"})
	if !res.Success {
		t.Fatalf("init_project failed: %s", res.Error)
	}

	manifest := readManifest(t, root)
	if manifest["name"] != "demo" {
		t.Errorf("manifest name = %v, want demo", manifest["name"])
	}
	if info, err := os.Stat(filepath.Join(root, "src")); err != nil || !info.IsDir() {
		t.Error("src/ should exist")
	}
	if _, err := os.Stat(filepath.Join(root, "README.md")); err != nil {
		t.Error("README.md should exist")
	}

	// Re-initializing is refused.
	res = r.Execute(context.Background(), "init_project", map[string]any{"name": "demo2"})
	if res.Success {
		t.Error("init_project must refuse an initialized workspace")
	}
}

func TestUpdatePackageJSON_Merges(t *testing.T) {
	r, root := newProjectRegistry(t)
	ctx := context.Background()

	if res := r.Execute(ctx, "init_project", map[string]any{"name": "demo"}); !res.Success {
		t.Fatalf("init_project failed: %s", res.Error)
	}

	res := r.Execute(ctx, "update_package_json", map[string]any{
		"fields": map[string]any{
			"version": "1.0.0",
			"scripts": map[string]any{"test": "jest"},
		},
	})
	if !res.Success {
		t.Fatalf("update_package_json failed: %s", res.Error)
	}

	res = r.Execute(ctx, "update_package_json", map[string]any{
		"fields": map[string]any{
			"scripts": map[string]any{"build": "tsc"},
		},
	})
	if !res.Success {
		t.Fatalf("second update failed: %s", res.Error)
	}

	manifest := readManifest(t, root)
	if manifest["version"] != "1.0.0" {
		t.Errorf("version = %v, want 1.0.0", manifest["version"])
	}
	scripts, _ := manifest["scripts"].(map[string]any)
	if scripts["test"] != "jest" || scripts["build"] != "tsc" {
		t.Errorf("scripts not merged key by key: %v", scripts)
	}
}

func TestUpdatePackageJSON_EmptyFields(t *testing.T) {
	r, _ := newProjectRegistry(t)
	res := r.Execute(context.Background(), "update_package_json", map[string]any{"fields": map[string]any{}})
	if res.Success {
		t.Error("empty fields object must fail")
	}
}
