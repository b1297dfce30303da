// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. The carton catalog, default deductions and
// divider thickness are part of it, so a deployment can ship its own cartons.
package config
