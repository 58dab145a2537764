// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The level and mode come from LOG_LEVEL / LOG_DEV via the config package;
// NewFromLevel wires them together at server startup.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Refresh failed", zap.Error(err))
package logging
