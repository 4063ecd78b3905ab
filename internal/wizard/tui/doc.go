// Package tui implements the interactive terminal form of flood-predict.
//
// It is a full-screen Bubble Tea application with two screens:
//   - Discovery: pick a prediction service announced over mDNS, or type
//     its URL (only with --discover)
//   - Form: the twenty indicators as text inputs in display order, a
//     pending spinner, and the result or error panel
//
// The form keeps no state of its own beyond focus and widgets. Every edit
// is forwarded to a submission.Controller, and the view is re-rendered
// from the snapshots the controller publishes, so the terminal shows the
// same Idle, Pending, Succeeded and Failed states as the browser form.
//
// Fields accept only characters that can appear in a number
// (digits, sign, decimal point, exponent). Other keys act as commands:
//
//	↑/↓, tab     move between fields
//	enter        get a prediction
//	r            reset every field to its default
//	?            toggle the full help
//	q, esc       quit
//
// # Usage Example
//
//	controller := submission.New(client)
//	err := tui.Run(tui.Options{
//	    Controller: controller,
//	    Endpoint:   client.PredictURL(),
//	})
//
// Zap logging is silent unless FLOOD_LOG_LEVEL is set. Send it to a file
// (logging.file in the config) while the form is on screen.
package tui
