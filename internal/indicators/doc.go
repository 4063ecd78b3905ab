// Package indicators holds the twenty environmental indicators accepted by
// the flood prediction service and the form state built from them.
//
// # Form Values
//
// FormValues is an immutable, ordered mapping from indicator name to the raw
// text currently entered for it. Every edit produces a fresh copy:
//
//	form := indicators.Defaults()
//	form = form.SetField("Urbanization", "4.7")
//
// The key set is fixed. Names outside Names are ignored by SetField, so the
// order and size of the mapping never change at runtime.
//
// # Payloads
//
// Raw text is only coerced to numbers when a request is built:
//
//	payload, err := form.Payload()
//	if err != nil {
//	    var perr *indicators.ParseError
//	    errors.As(err, &perr) // perr.Fields lists every bad indicator
//	}
//
// A Payload marshals to a JSON object containing exactly the twenty keys in
// display order.
package indicators
