// Package config loads the YAML configuration file of the tinytest command.
//
// Files are decoded strictly (unknown keys are errors) and then checked
// against an embedded CUE schema. Command-line flags override file values;
// that merge happens in the cli package.
package config
