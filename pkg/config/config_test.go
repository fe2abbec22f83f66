package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeFile(t, "name: ${SAMPLE_NAME}\ncount: 3\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Count != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := writeFile(t, "count: -1\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Count: 1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("defaults lost: %+v", s)
	}

	s.Count = -2
	if err := LoadOptional("", &s); err == nil {
		t.Error("defaults should still be validated")
	}
}

func TestLoadOptional_ExistingFileOverrides(t *testing.T) {
	p := writeFile(t, "name: file\n")
	s := sample{Name: "default", Count: 1}
	if err := LoadOptional(p, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "file" || s.Count != 1 {
		t.Errorf("got %+v", s)
	}
}
