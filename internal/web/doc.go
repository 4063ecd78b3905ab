// Package web serves the flood prediction form to browsers.
//
// Every visitor gets a session cookie and a submission.Controller of their
// own. The page is rendered on the server with html/template, so a plain
// form post works without JavaScript:
//
//	GET  /         render the form and the current outcome
//	POST /         store the posted fields, submit and render the outcome
//	POST /submit   store the posted fields and start a submission (JSON)
//	GET  /state    current submission state (JSON)
//	POST /reset    restore the initial form
//	GET  /ws       websocket stream of state snapshots
//	GET  /healthz  liveness probe
//
// When JavaScript is available the page posts to /submit and follows the
// websocket, so the pending indicator, the result and the error block
// update without a reload.
//
// # Sessions
//
// Sessions idle for longer than the configured TTL are swept and their
// controllers closed, which cancels any request still in flight.
//
// # TLS
//
// Setting both CertFile and KeyFile serves HTTPS with TLS 1.2 or later.
package web
