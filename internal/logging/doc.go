// Package logging provides structured logging for flood-predict.
//
// This package wraps a global zap logger with convenience functions for the
// events the tool cares about: prediction requests, submission failures and
// requests served by the web form.
//
// # Silent By Default
//
// The CLI and the terminal form must not print log lines unless asked to.
// Without an explicit level and with FLOOD_LOG_LEVEL unset, the logger is a
// no-op:
//
//	FLOOD_LOG_LEVEL=debug flood-predict serve
//
// # Configuration
//
//	if err := logging.Initialize("info"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The terminal form routes output to a file instead of stdout:
//
//	logging.InitializeWithOutput("debug", "/tmp/flood-predict.log")
//
// # Submission Failures
//
// Every failure cause collapses to one generic message on screen. The real
// cause is only visible here:
//
//	logging.LogSubmissionFailure(requestID, err)
package logging
