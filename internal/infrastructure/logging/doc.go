// Package logging provides structured logging using uber/zap.
//
// The logger is the diagnostic sink of the application core: every error
// boundary (module creation, start, end, subscriber delivery) writes here
// instead of propagating. Production mode writes JSON; development mode
// writes colored console lines.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.ForModule("news").Warn("element outside box", zap.String("op", "addClass"))
package logging
