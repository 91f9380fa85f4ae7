// Package logger provides structured logging on top of zerolog.
//
// Loggers are created from a Config (JSON or console output), tagged per
// component and enriched with the request or trace ids carried in a context.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Debug("layer added", logger.Fields(logger.FieldLayer, "retry"))
package logger
