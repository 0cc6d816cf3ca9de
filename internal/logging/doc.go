// Package logging provides structured logging for kadanoff runs.
//
// It wraps log/slog. A logger created for a run directory writes JSON lines
// to {runDir}/solve.log; without a directory it writes human readable text
// to stderr. Child loggers created with WithPhase or With carry their
// attributes into every entry, so solver phases can be filtered after the
// fact:
//
//	logger, err := logging.NewLogger(dir, logging.LevelInfo)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.WithPhase("bootstrap").Info("iteration", "iter", 3, "err", 1e-9)
//
// # Thread Safety
//
// Logger is safe for concurrent use. Children share the parent's writer.
package logging
