/*
Package server implements msgpack IPC for completion and prediction.

The server reads a stream of msgpack encoded requests from stdin and writes
one msgpack encoded response per request to stdout. Requests are processed
synchronously, in order, with timing info included in responses. Logs go to
stderr.

# IPC

Every message carries an id. A request without one gets a generated UUID,
echoed back in the response. On start the server writes a ready message:

	{"id": "", "status": "ready"}

Completion requests hold a raw input line. A line ending in whitespace asks
for next-word predictions, anything else completes the last word:

	{"id": "req_001", "a": "complete", "q": "the ca", "l": 10}

The response lists words best first with their rank and the n-gram order
they were matched at:

	{"id": "req_001", "s": [{"w": "cat", "r": 1, "o": 2}, {"w": "cats", "r": 2, "o": 1}], "c": 2, "t": 145}

Setting "s" to true or false overrides the configured strict mode for one
request. Corpus statistics and liveness:

	{"id": "info_001", "a": "info"}
	{"id": "ping", "a": "health"}

Failed requests get an error with code 400 (bad request) or 500 (store
failure); the server keeps serving afterwards:

	{"id": "req_002", "e": "query exceeds 256 bytes", "c": 400}
*/
package server

// Actions understood by the server. An empty action means ActionComplete.
const (
	ActionComplete = "complete"
	ActionInfo     = "info"
	ActionHealth   = "health"
)

// Request is any client message.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"a,omitempty"`
	Query  string `msgpack:"q"`
	Limit  int    `msgpack:"l,omitempty"`
	Strict *bool  `msgpack:"s,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word  string `msgpack:"w"`
	Rank  uint16 `msgpack:"r"`
	Order int    `msgpack:"o"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// InfoResponse answers info and health requests, and announces readiness.
type InfoResponse struct {
	ID     string         `msgpack:"id"`
	Status string         `msgpack:"status"`
	Counts map[string]int `msgpack:"counts,omitempty"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
