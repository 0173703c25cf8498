package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/matjam/glance"
)

func TestCanonicalPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/Pictures/a.png", "/home/tester/Pictures/a.png"},
		{"/abs/~/x", "/abs/~/x"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalPath(tt.in); got != tt.want {
				t.Fatalf("CanonicalPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glance", "glance.toml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != glance.DefaultConfig {
		t.Fatal("written config differs from the embedded default")
	}

	// The embedded default must parse and carry the documented keys.
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}
	if v.GetFloat64("view.pan_step") != 40 || !v.GetBool("exit_on_click") || v.GetDuration("animation.min_frame_delay").String() != "10ms" {
		t.Fatalf("unexpected defaults: %v", v.AllSettings())
	}

	// An existing file is left alone.
	if err := os.WriteFile(path, []byte("debug = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig over existing: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "debug = true\n" {
		t.Fatalf("existing config overwritten: %q", data)
	}
}
