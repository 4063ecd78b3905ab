// Package submission drives the request lifecycle of the flood form.
//
// A Controller owns the form values and one explicit submission state:
//
//	Idle --Submit--> Pending --ok--> Succeeded(probability)
//	                         \--err-> Failed(FailureMessage)
//
// Starting a submission always passes through Pending, which clears the
// previous result or error before the new request resolves. Because the
// state is a single tagged value, a result and an error are never shown at
// the same time, and renderers can show a pending indicator.
//
// # Overlapping Submissions
//
// The Policy decides what a second Submit does while one is in flight:
//
//   - LastSentWins (default): the earlier request is canceled and only the
//     most recently started submission can change the state.
//   - RejectWhilePending: Submit returns ErrPending.
//   - LastResolvedWins: requests race and whichever settles last is shown.
//
// Start is the non-blocking form of Submit used by the web form: it
// returns the Pending state at once and the outcome arrives through
// Subscribe.
//
// # Failures
//
// Non-numeric form values, transport errors, non-2xx statuses and bodies
// without a probability all end in PhaseFailed with FailureMessage. The
// cause is logged through the logging package and nowhere else.
//
// # Usage Example
//
//	ctrl := submission.New(predict.NewClient(baseURL))
//	ctrl.SetField("Urbanization", "4.8")
//
//	state, err := ctrl.Submit(ctx)
//	if err != nil {
//	    return err // ErrPending, ErrSuperseded or ErrClosed
//	}
//	fmt.Println(state.Display()) // "42.57%" or FailureMessage
package submission
