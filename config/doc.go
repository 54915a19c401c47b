// Package config loads and validates packrepair settings.
//
// Settings come from a built-in default (default.json), optionally merged with a
// JSON, YAML or TOML file found by viper, and are turned into an immutable
// Rules value with Compile. Ordered rule lists (expected extensions, non-path
// keys) keep their declaration order; the first matching rule wins.
package config
