// Package logger provides the structured logging interface used across the
// scraper.
//
// It wraps zerolog behind the Logger interface. Console output goes to stderr
// so that the collector's stdout report stays clean; a log file can be added
// through LoggingConfig.File.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("lang", "es").Info("Collection started")
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger
