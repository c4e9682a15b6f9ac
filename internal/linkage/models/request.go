package models

import "strings"

// Action is a normalized request action tag.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionSearch Action = "SEARCH"
)

// NormalizeAction trims and upper-cases a raw action tag. The result is not
// guaranteed to be one of the known actions.
func NormalizeAction(raw string) Action {
	return Action(strings.ToUpper(strings.TrimSpace(raw)))
}

// Request is the parsed shape consumed by the dispatcher. Action is kept as
// the caller sent it so error messages can echo it verbatim.
//
// Data values are pointers: a key mapped to nil is present with a null value,
// which differs from the key being absent.
type Request struct {
	Action        *string            `json:"action"`
	OldLinkageKey *string            `json:"oldAadhaarLinkageKey,omitempty"`
	Data          map[string]*string `json:"data,omitempty"`
}

// NewRequest builds a request for the given action tag.
func NewRequest(action string) *Request {
	return &Request{Action: &action}
}

// WithKey sets the prior linkage key.
func (r *Request) WithKey(key string) *Request {
	r.OldLinkageKey = &key
	return r
}

// WithData sets the field mapping.
func (r *Request) WithData(data map[string]*string) *Request {
	r.Data = data
	return r
}

// Fields converts a plain string map into a request data mapping.
func Fields(values map[string]string) map[string]*string {
	data := make(map[string]*string, len(values))
	for k, v := range values {
		data[k] = &v
	}
	return data
}
