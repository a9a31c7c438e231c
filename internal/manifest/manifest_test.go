package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
)

func TestRead(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "name": "demo",
  "version": "1.2.3",
  "scripts": {
    "test": "go test ./...",
    "build:js": "esbuild src",
    "build:css": "sass src",
    "lint": "eslint ."
  }
}`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write package.json: %v", err)
	}

	m, err := Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	wantNames := []string{"test", "build:js", "build:css", "lint"}
	if !reflect.DeepEqual(m.TaskNames, wantNames) {
		t.Errorf("TaskNames = %v, want %v (document order)", m.TaskNames, wantNames)
	}
	if m.Info.Name != "demo" || m.Info.Version != "1.2.3" {
		t.Errorf("Info = %+v", m.Info)
	}
	if got := m.Info.Script("build:css"); got != "sass src" {
		t.Errorf("Script(build:css) = %q", got)
	}
	if !filepath.IsAbs(m.Info.Path) {
		t.Errorf("Path should be absolute, got %q", m.Info.Path)
	}
}

func TestRead_NotFound(t *testing.T) {
	_, err := Read(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing package.json")
	}
	if !runerrors.IsKind(err, runerrors.KindManifest) {
		t.Errorf("expected KindManifest, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"scripts": {`},
		{"array", `[1, 2]`},
		{"no scripts", `{"name": "x"}`},
		{"scripts not object", `{"scripts": ["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("package.json", []byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !runerrors.IsKind(err, runerrors.KindManifest) {
				t.Errorf("expected KindManifest, got %v", err)
			}
		})
	}
}

func TestParse_EmptyScripts(t *testing.T) {
	m, err := Parse("package.json", []byte(`{"scripts": {}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(m.TaskNames) != 0 {
		t.Errorf("expected no tasks, got %v", m.TaskNames)
	}
}

func TestPackageInfo_ScriptNil(t *testing.T) {
	var info *PackageInfo
	if got := info.Script("x"); got != "" {
		t.Errorf("nil PackageInfo Script() = %q", got)
	}
}
