// Package config loads service configuration with Viper.
//
// A YAML config file is read first, then an optional .env file and the
// process environment, which override file values. Environment variables
// map onto nested keys by splitting on underscores, so PIPELINE_ACTION sets
// pipeline.action.
//
//	cfg, err := config.Load[Config]("onion", config.WithConfigFile("onion.yml"))
//
// Load applies defaults through ApplyDefaults and validates through Validate
// and `validate` struct tags.
package config
