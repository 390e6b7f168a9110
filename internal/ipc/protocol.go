// Package ipc carries newline-delimited JSON commands between CLI
// invocations and the owning agrivoice process over a unix socket.
package ipc

// Request is one UI event forwarded to the owner.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response reports the outcome of a Request. Lines carries multi-line
// output such as chat history.
type Response struct {
	OK       bool     `json:"ok"`
	State    string   `json:"state,omitempty"`
	Language string   `json:"language,omitempty"`
	Message  string   `json:"message,omitempty"`
	Lines    []string `json:"lines,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Failure builds an error response.
func Failure(err error) Response {
	if err == nil {
		return Response{OK: false}
	}
	return Response{OK: false, Error: err.Error()}
}
