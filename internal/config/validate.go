package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/frherrer/treesync/internal/domain"
)

// Languages are the accepted values of lang.
var Languages = []string{"noir", "rust", "solidity"}

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	if !contains(Languages, cfg.Lang) {
		errs = append(errs, fmt.Sprintf("lang must be one of: %s (got %q)", strings.Join(Languages, ", "), cfg.Lang))
	}

	if len(cfg.Tags) == 0 {
		errs = append(errs, "tags must not be empty")
	}

	// Pragmas accept ranges, so the version is a constraint.
	if _, err := semver.NewConstraint(cfg.Scaffold.SolidityVersion); err != nil {
		errs = append(errs, fmt.Sprintf("scaffold.solidity_version is not a valid version: %v", err))
	}

	for _, kw := range cfg.Naming.FailureKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, "naming.failure_keywords must not contain empty entries")
			break
		}
	}

	if cfg.Output.Suffix == "" {
		errs = append(errs, "output.suffix must not be empty")
	}
	for lang, ext := range cfg.Output.Extensions {
		if !contains(Languages, lang) {
			errs = append(errs, fmt.Sprintf("output.extensions has unknown language %q", lang))
		}
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("output.extensions.%s must start with a dot (got %q)", lang, ext))
		}
	}

	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}
	for _, pattern := range append(append([]string(nil), cfg.Input.Include...), cfg.Input.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("input pattern %q is not a valid glob", pattern))
		}
	}

	if cfg.Jobs < 1 {
		errs = append(errs, fmt.Sprintf("jobs must be at least 1 (got %d)", cfg.Jobs))
	}

	// Validate logging level
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
