package rfbridge

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrNoActiveContext is returned when a call reaches the gateway and no
// engine context is bound in the current process.
var ErrNoActiveContext = errors.New("rfbridge: no active engine context")

// ErrRemote is a sentinel for use with errors.Is to check whether any error
// in a chain is a *RemoteCallError.
var ErrRemote = &RemoteCallError{}

// RemoteCallError represents a failure surfaced from the far side of the
// gateway: a remote exception, a protocol violation, or loss of the
// transport itself. It is never retried by this layer.
type RemoteCallError struct {
	Method    string // bridge method that was being invoked, if known
	Type      string // remote exception class, e.g. "IllegalArgumentException"
	Message   string
	Traceback string // remote stack trace, empty when the engine withholds it
	RequestID string
}

func (e *RemoteCallError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: %s: %s", e.Method, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Is supports errors.Is by matching any *RemoteCallError target.
func (e *RemoteCallError) Is(target error) bool {
	_, ok := target.(*RemoteCallError)
	return ok
}

// ErrUnsupportedFeature is a sentinel for use with errors.Is to check whether
// any error in a chain is an *UnsupportedFeatureError.
var ErrUnsupportedFeature = &UnsupportedFeatureError{}

// UnsupportedFeatureError marks a deliberate capability boundary: the input
// names something the engine supports but this bridge does not yet implement,
// such as user-defined NoData cell types or raster source references. It is
// raised instead of silently misinterpreting the data.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("rfbridge: %s not implemented", e.Feature)
}

// Is supports errors.Is by matching any *UnsupportedFeatureError target.
func (e *UnsupportedFeatureError) Is(target error) bool {
	_, ok := target.(*UnsupportedFeatureError)
	return ok
}

// errorExtra is the JSON structure carried in rf_bridge.log_extra on
// EXCEPTION-level batches.
type errorExtra struct {
	ExceptionType    string `json:"exception_type"`
	ExceptionMessage string `json:"exception_message"`
	Traceback        string `json:"traceback"`
}

// parseRemoteError builds a RemoteCallError from the metadata of an
// EXCEPTION batch. The log_extra payload is best-effort: when absent or
// malformed the message alone is kept.
func parseRemoteError(message, extraJSON, requestID string) *RemoteCallError {
	rce := &RemoteCallError{
		Type:      "RemoteException",
		Message:   message,
		RequestID: requestID,
	}
	if extraJSON == "" {
		return rce
	}
	var extra errorExtra
	if err := json.Unmarshal([]byte(extraJSON), &extra); err != nil {
		return rce
	}
	if extra.ExceptionType != "" {
		rce.Type = extra.ExceptionType
	}
	if extra.ExceptionMessage != "" {
		rce.Message = extra.ExceptionMessage
	}
	rce.Traceback = extra.Traceback
	return rce
}

// buildErrorExtra creates the log_extra JSON for an outgoing error batch.
// Used by the response-writing half of the wire layer (in-process engines
// and test doubles).
func buildErrorExtra(err error) string {
	extra := errorExtra{
		ExceptionType:    fmt.Sprintf("%T", err),
		ExceptionMessage: err.Error(),
	}
	if rce, ok := err.(*RemoteCallError); ok {
		extra.ExceptionType = rce.Type
		extra.ExceptionMessage = rce.Message
		extra.Traceback = rce.Traceback
	}
	data, _ := json.Marshal(extra)
	return string(data)
}
