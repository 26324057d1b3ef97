package config

import "github.com/frherrer/treesync/internal/translator"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	return &Config{
		Lang: "solidity",
		Tags: []string{"tree"},
		Scaffold: ScaffoldConfig{
			SolidityVersion: "0.8.0",
		},
		Naming: NamingConfig{
			FailureKeywords: append([]string(nil), translator.DefaultFailureKeywords...),
		},
		Output: OutputConfig{
			Suffix: "_test",
			Extensions: map[string]string{
				"rust":     ".rs",
				"noir":     ".nr",
				"solidity": ".sol",
			},
		},
		Input: InputConfig{
			Include:   []string{"*.tree", "*.md", "*.markdown", "*.adoc", "*.asciidoc"},
			Exclude:   []string{"vendor/**", "node_modules/**", "target/**"},
			Recursive: &recursive,
		},
		Jobs: 1,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
