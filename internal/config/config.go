// Package config holds tool-level configuration: settings that belong
// to the tup installation rather than to a particular database (those
// live in the database config table). Backed by a viper singleton.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/untoldecay/tup/internal/debug"
)

var v *viper.Viper

// TupDir is the metadata directory created by `tup init` at the
// project root.
const TupDir = ".tup"

// ErrNoProject is returned when no enclosing directory contains .tup.
var ErrNoProject = errors.New("no .tup directory found; run 'tup init' at the project root")

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	// Explicitly locate config.yaml: project .tup/config.yaml first,
	// then ~/.config/tup/config.yaml. Walking up from CWD lets
	// commands work from subdirectories.
	configFileSet := false
	if root, err := ProjectRoot(); err == nil {
		configPath := filepath.Join(root, TupDir, "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			configFileSet = true
		}
	}
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "tup", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// Environment variables take precedence over the config file,
	// e.g. TUP_DB, TUP_NO_COLOR, TUP_LOCK_TIMEOUT.
	v.SetEnvPrefix("TUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", "")
	v.SetDefault("no-color", false)
	v.SetDefault("lock-timeout", "0s") // 0 = wait forever
	v.SetDefault("monitor.debounce", "500ms")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return err
		}
		debug.Logf("Debug: loaded config from %s\n", v.ConfigFileUsed())
	} else {
		debug.Logf("Debug: no config.yaml found; using defaults and environment variables\n")
	}
	return nil
}

// ProjectRoot walks up from the working directory looking for a .tup
// directory and returns the directory containing it.
func ProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		if fi, err := os.Stat(filepath.Join(dir, TupDir)); err == nil && fi.IsDir() {
			return dir, nil
		}
		if dir == filepath.Dir(dir) {
			return "", ErrNoProject
		}
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a boolean config value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a config value at runtime (flag binding).
func Set(key string, value any) {
	if v != nil {
		v.Set(key, value)
	}
}
