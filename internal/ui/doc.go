// Package ui renders the styled, run-once output of the flood-predict
// commands: a header naming the command and its parameters, then a
// success, warning or failure box.
//
// Components are plain lipgloss renderers. The interactive form lives in
// internal/wizard/tui and shares the palette defined here.
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Flood prediction", "flood-predict predict",
//	    ui.Detail{Key: "Service", Value: client.PredictURL()})
//	p.PrintSuccess("Flood probability 42.57%",
//	    ui.Detail{Key: "Request ID", Value: id})
//
// Width comes from the stdout terminal via golang.org/x/term and is clamped
// to [MinTerminalWidth, MaxContentWidth].
package ui
