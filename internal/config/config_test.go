package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CageChen/assethub/internal/resource"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", cfg.Addr)
	}
	if cfg.HighlightStyle != "monokai" {
		t.Errorf("expected style monokai, got %s", cfg.HighlightStyle)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
}

func TestLoadFile_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "assethub.yaml")
	data := `
addr: ":9000"
sources:
  - name: css
    path: web/css
    pattern: '\.css$'
  - name: abs
    path: /srv/assets
`
	if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %s", cfg.Addr)
	}
	if !cfg.Watch {
		t.Error("expected watch default to survive loading")
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if want := filepath.Join(dir, "web", "css"); cfg.Sources[0].Path != want {
		t.Errorf("expected path %s, got %s", want, cfg.Sources[0].Path)
	}
	if cfg.Sources[0].Pattern != `\.css$` {
		t.Errorf("unexpected pattern %q", cfg.Sources[0].Pattern)
	}
	if cfg.Sources[1].Path != "/srv/assets" {
		t.Errorf("absolute path changed to %s", cfg.Sources[1].Path)
	}
	if cfg.GetConfigFilePath() != cfgPath {
		t.Errorf("expected config path %s, got %s", cfgPath, cfg.GetConfigFilePath())
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing name":   "sources:\n  - path: /x\n",
		"missing path":   "sources:\n  - name: x\n",
		"duplicate name": "sources:\n  - {name: x, path: /a}\n  - {name: x, path: /b}\n",
		"unknown engine": "sources:\n  - {name: x, path: /a, engine: glob}\n",
		"unknown kind":   "sources:\n  - {name: x, path: /a, kind: socket}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(cfgPath); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestAddAndRemoveSource(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.AddSource(Source{Name: "js", Path: "./web/js", Pattern: `\.js$`}); err != nil {
		t.Fatalf("AddSource failed: %v", err)
	}
	s, ok := cfg.Source("js")
	if !ok {
		t.Fatal("expected source js")
	}
	if !filepath.IsAbs(s.Path) {
		t.Errorf("expected absolute path, got %s", s.Path)
	}

	if err := cfg.AddSource(Source{Name: "js", Path: "/other"}); err == nil {
		t.Error("expected duplicate name to be rejected")
	}
	if err := cfg.AddSource(Source{Name: "bad", Path: "/x", Engine: "glob"}); err == nil {
		t.Error("expected unknown engine to be rejected")
	}

	if !cfg.RemoveSource("js") {
		t.Error("expected js to be removed")
	}
	if cfg.RemoveSource("js") {
		t.Error("expected second removal to report false")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.SetConfigFilePath(tmpFile)
	cfg.Addr = ":9999"
	cfg.Sources = []Source{{Name: "css", Path: "/tmp/css", Pattern: `/\.css$/i`, Engine: "pcre"}}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg2, err := LoadFile(tmpFile)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg2.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %s", cfg2.Addr)
	}
	if len(cfg2.Sources) != 1 || cfg2.Sources[0] != cfg.Sources[0] {
		t.Errorf("source round trip failed: %+v", cfg2.Sources)
	}
}

func TestSource_Open(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.css"), []byte("a{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.js"), []byte("b()"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Source{Name: "css", Path: dir, Pattern: `\.css$`}.Open(nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	content, err := r.Content()
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	if content != "a{}" {
		t.Errorf("unexpected content %q", content)
	}

	f, err := Source{Name: "js", Path: filepath.Join(dir, "b.js"), Kind: KindFile}.Open(nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := f.(*resource.FileResource); !ok {
		t.Errorf("expected a file resource, got %T", f)
	}

	_, err = Source{Name: "x", Path: dir, Engine: "glob"}.Open(nil)
	if !errors.Is(err, resource.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestSource_Location(t *testing.T) {
	local := Source{Path: "/repo", SubPath: "web"}
	if got := local.Location(); got != filepath.Join("/repo", "web") {
		t.Errorf("unexpected local location %s", got)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	relative := Source{Path: "assets", SubPath: "css"}
	if got := relative.Location(); got != filepath.Join(wd, "assets", "css") {
		t.Errorf("expected relative location resolved against %s, got %s", wd, got)
	}
	git := Source{Path: "/repo", SubPath: "web", GitRef: "main"}
	if got := git.Location(); got != "web" {
		t.Errorf("unexpected git location %s", got)
	}
	if !strings.HasSuffix(GetConfigPath(), filepath.Join("assethub", "config.yaml")) {
		t.Errorf("unexpected config path %s", GetConfigPath())
	}
}
