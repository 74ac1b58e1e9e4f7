// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nolash/kitab/lib/digest"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	config := Default()

	if config.Store.Directory != "/data/kitab/idx" {
		t.Errorf("Store.Directory = %q, want /data/kitab/idx", config.Store.Directory)
	}
	if config.Catalog.Path != "/data/kitab/catalog.db" {
		t.Errorf("Catalog.Path = %q", config.Catalog.Path)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
	algorithm, err := config.ImportAlgorithm()
	if err != nil || algorithm != digest.SHA512 {
		t.Errorf("ImportAlgorithm = %v, %v", algorithm, err)
	}
	algorithms, err := config.ApplyAlgorithms()
	want := []digest.Algorithm{digest.SHA512, digest.SHA256, digest.MD5, digest.Bzz}
	if err != nil || !reflect.DeepEqual(algorithms, want) {
		t.Errorf("ApplyAlgorithms = %v, %v, want %v", algorithms, err, want)
	}
}

func TestDefaultWithoutXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/reader")
	if got := Default().Store.Directory; got != "/home/reader/.local/share/kitab/idx" {
		t.Errorf("Store.Directory = %q", got)
	}
}

func TestLoadWithoutEnvironment(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	t.Setenv("XDG_DATA_HOME", "/data")
	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(config, Default()) {
		t.Errorf("Load() = %+v, want Default()", config)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeConfig(t, "kitab.yaml", "store:\n  directory: /srv/kitab\n")
	t.Setenv(EnvironmentVariable, path)
	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Store.Directory != "/srv/kitab" {
		t.Errorf("Store.Directory = %q", config.Store.Directory)
	}
}

func TestLoadFileYAML(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("LIBRARY", "/mnt/library")
	path := writeConfig(t, "kitab.yml", `
store:
  directory: ${LIBRARY}/idx
import:
  algorithm: sha256
apply:
  algorithms: [bzz, md5, bzz]
catalog:
  path: ${KITAB_DATA}/search.db
  auto_index: false
log:
  level: debug
  format: json
`)

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if config.Store.Directory != "/mnt/library/idx" {
		t.Errorf("Store.Directory = %q", config.Store.Directory)
	}
	if config.Catalog.Path != "/data/kitab/search.db" || config.Catalog.AutoIndex {
		t.Errorf("Catalog = %+v", config.Catalog)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	algorithms, err := config.ApplyAlgorithms()
	if err != nil {
		t.Fatal(err)
	}
	if want := []digest.Algorithm{digest.Bzz, digest.MD5}; !reflect.DeepEqual(algorithms, want) {
		t.Errorf("ApplyAlgorithms = %v, want %v", algorithms, want)
	}
	if level, _ := ParseLevel(config.Log.Level); level != slog.LevelDebug {
		t.Errorf("level = %v", level)
	}
	// Fields the file leaves out keep their defaults.
	if config.Import.MaxSourceSize != 16<<20 {
		t.Errorf("MaxSourceSize = %d", config.Import.MaxSourceSize)
	}
}

func TestLoadFileJSONC(t *testing.T) {
	path := writeConfig(t, "kitab.jsonc", `{
  // where records live
  "store": {"directory": "${UNSET_KITAB_VARIABLE:-/fallback}/idx"},
  /* trailing commas are fine */
  "log": {"level": "warn",},
}`)

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if config.Store.Directory != "/fallback/idx" {
		t.Errorf("Store.Directory = %q", config.Store.Directory)
	}
	if config.Log.Level != "warn" || config.Log.Format != "auto" {
		t.Errorf("Log = %+v", config.Log)
	}
}

func TestLoadFileEmptyYAML(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	config, err := LoadFile(writeConfig(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(config, Default()) {
		t.Errorf("empty file = %+v, want defaults", config)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown yaml field", "kitab.yaml", "stor:\n  directory: /x\n"},
		{"unknown json field", "kitab.json", `{"stor": {}}`},
		{"bad yaml", "kitab.yaml", "store: [\n"},
		{"unsupported extension", "kitab.toml", "[store]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.file, tt.content)); err == nil {
				t.Error("LoadFile succeeded")
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file = %v, want ErrNotExist", err)
	}
}

func TestValidateJoinsProblems(t *testing.T) {
	config := Default()
	config.Store.Directory = ""
	config.Import.Algorithm = "crc32"
	config.Apply.Algorithms = nil
	config.Log.Level = "loud"
	config.Log.Format = "xml"

	err := config.Validate()
	if err == nil {
		t.Fatal("Validate succeeded")
	}
	for _, fragment := range []string{"store.directory", "import.algorithm", "apply.algorithms", "log.level", "log.format"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("Validate error does not mention %s:\n%v", fragment, err)
		}
	}
	if !errors.Is(err, digest.ErrUnknownScheme) {
		t.Error("Validate error should wrap digest.ErrUnknownScheme")
	}
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	config := Default()
	config.Store.Directory = filepath.Join(root, "a", "idx")
	config.Catalog.Path = filepath.Join(root, "b", "catalog.db")
	if err := config.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	for _, dir := range []string{config.Store.Directory, filepath.Dir(config.Catalog.Path)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}
