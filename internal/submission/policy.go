package submission

import (
	"fmt"
	"strings"
)

// Policy decides what happens when a submission starts while another one is
// still in flight.
type Policy int

const (
	// LastSentWins cancels the earlier request; only the most recently
	// started submission can change the state.
	LastSentWins Policy = iota
	// RejectWhilePending refuses new submissions until the pending one
	// resolves.
	RejectWhilePending
	// LastResolvedWins lets overlapping requests race; whichever settles
	// last is shown.
	LastResolvedWins
)

// String returns the configuration name of the policy
func (p Policy) String() string {
	switch p {
	case LastSentWins:
		return "last-sent-wins"
	case RejectWhilePending:
		return "reject-while-pending"
	case LastResolvedWins:
		return "last-resolved-wins"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a configuration name. Empty selects LastSentWins.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-sent-wins":
		return LastSentWins, nil
	case "reject-while-pending":
		return RejectWhilePending, nil
	case "last-resolved-wins":
		return LastResolvedWins, nil
	default:
		return LastSentWins, fmt.Errorf("unknown submission policy %q (expected last-sent-wins, reject-while-pending or last-resolved-wins)", s)
	}
}

// Policies lists the valid configuration names
func Policies() []string {
	return []string{LastSentWins.String(), RejectWhilePending.String(), LastResolvedWins.String()}
}
