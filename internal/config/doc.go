// Package config loads and validates the cellflow deployment file.
//
// A [Config] is read from cellflow.yaml (see [FindConfigFile]), filled with
// defaults, overlaid with CELLFLOW_* environment overrides and the API
// secrets, then checked by [Config.Validate]. Secrets are never read from or
// written to the YAML file.
package config
