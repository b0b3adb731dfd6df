package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	opts := Default()
	if opts.Level != "INFO" {
		t.Errorf("Level = %q, want INFO", opts.Level)
	}
	if !opts.Xqute {
		t.Error("Xqute should default to true")
	}
	if opts.XquteLevel != "INFO" {
		t.Errorf("XquteLevel = %q, want INFO", opts.XquteLevel)
	}
	if opts.XquteAppend {
		t.Error("XquteAppend should default to false")
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults flow through viper", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()

		opts, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if *opts != *Default() {
			t.Errorf("opts = %+v, want defaults", opts)
		}
	})

	t.Run("explicit settings override defaults", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("log2file_xqute", false)
		viper.Set("log2file_xqute_level", "WARN")
		viper.Set("log2file_xqute_append", true)

		opts, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if opts.Xqute {
			t.Error("Xqute override lost")
		}
		if opts.XquteLevel != "WARN" {
			t.Errorf("XquteLevel = %q, want WARN", opts.XquteLevel)
		}
		if !opts.XquteAppend {
			t.Error("XquteAppend override lost")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		if errs := Default().Validate(); len(errs) != 0 {
			t.Errorf("unexpected validation errors: %v", errs)
		}
	})

	t.Run("empty levels are flagged", func(t *testing.T) {
		opts := Default()
		opts.Level = ""
		if errs := opts.Validate(); len(errs) == 0 {
			t.Error("expected a validation error for an empty level")
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigDir(); got != "/tmp/xdg/log2file" {
		t.Errorf("ConfigDir() = %s", got)
	}
}
