// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Every scalar setting is applied through the
// property configurer, so all sources share one value syntax and invalid values
// are reported rather than skipped.
package config
