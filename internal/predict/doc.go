// Package predict provides an HTTP client for the flood prediction service.
//
// The service is an external collaborator: it accepts the twenty indicators
// as a JSON object and answers with a flood probability. This package knows
// the wire format and nothing about how the probability is computed.
//
// # Usage Example
//
//	client := predict.NewClient("http://127.0.0.1:8000")
//	client.SetTimeout(10 * time.Second)
//
//	payload, err := indicators.Defaults().Payload()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prediction, err := client.Predict(ctx, payload)
//	if err != nil {
//	    log.Fatal(predict.ShortMessage(err))
//	}
//	fmt.Printf("%.2f%%\n", prediction.Probability)
//
// # Wire Format
//
//	POST /predict
//	Content-Type: application/json
//
//	{"MonsoonIntensity":2.5, ... ,"PoliticalFactors":2.6}
//
//	200 OK
//	{"PredictedFloodProbability":42.567}
//
// Predict makes exactly one attempt. There is no retry policy; callers that
// want one resubmit.
//
// # Schema Check
//
// The service publishes an OpenAPI document. CheckSchema confirms that the
// documented request body matches the indicators this module sends:
//
//	doc, err := client.FetchSchema(ctx)
//	report, err := predict.CheckSchema(doc, client.PredictPath)
//	fmt.Println(report.Summary())
//
// # Error Handling
//
// All failures are returned as *ServiceError with an ErrorType. Network,
// HTTP, parse and missing-field failures are distinguished here for logs
// and diagnostics even though the form shows one generic message for all of
// them.
package predict
