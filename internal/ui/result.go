package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one labelled line of a result box. Details render in the order
// they were added.
type Detail struct {
	Key   string
	Value string
}

// Result is a success, failure or warning box
type Result struct {
	Type            ResultType
	Title           string   // e.g., "Flood probability 42.57%"
	Details         []Detail // e.g., request id, endpoint
	Message         string   // user-facing failure text
	Error           error    // operator detail for failures
	Troubleshooting []string // hints for failures
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Detail) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title, message string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Message:         message,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Detail) *Result {
	return &Result{
		Type:    ResultWarning,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the rendering width
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box
func (r *Result) Render() string {
	width := clampWidth(r.Width)

	switch r.Type {
	case ResultFailure:
		return ErrorBoxStyle(width).Render(r.failureLines(width))
	case ResultWarning:
		return ErrorBoxStyle(width).
			BorderForeground(WarningColor).
			Render(r.plainLines(ErrorTitleStyle.Foreground(WarningColor), WarningMarker, "WARNING"))
	default:
		return SuccessBoxStyle(width).Render(r.plainLines(SuccessTitleStyle, SuccessMarker, "SUCCESS"))
	}
}

func (r *Result) plainLines(titleStyle lipgloss.Style, marker, label string) string {
	lines := []string{
		"",
		titleStyle.Render("   " + marker + "  " + label + "  ─  " + r.Title),
		"",
	}
	lines = append(lines, r.detailLines()...)
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (r *Result) failureLines(width int) string {
	lines := []string{
		"",
		ErrorTitleStyle.Render("   " + FailureMarker + "  FAILED  ─  " + r.Title),
		"",
	}

	if r.Message != "" {
		lines = append(lines, ErrorMessageStyle.Render("   "+r.Message), "")
	}
	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}
	if len(r.Details) > 0 {
		lines = append(lines, r.detailLines()...)
		lines = append(lines, "")
	}

	if len(r.Troubleshooting) > 0 {
		tips := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range r.Troubleshooting {
			tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
		}
		lines = append(lines, TroubleshootingBoxStyle(width).Render(strings.Join(tips, "\n")), "")
	}

	return strings.Join(lines, "\n")
}

func (r *Result) detailLines() []string {
	lines := make([]string, 0, len(r.Details))
	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	return lines
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
