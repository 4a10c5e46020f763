// Package protocol defines the line-delimited JSON wire format the
// configuration server (pkg/server, cmd/kconfig-server) speaks over
// standard input/standard output, per spec.md section 6.
package protocol

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SupportedVersions lists every protocol version this server understands,
// per spec.md section 6 ("version ... must match supported set {1,2,3}").
var SupportedVersions = []int{1, 2, 3}

// SupportsVersion reports whether v is one this server can speak.
func SupportsVersion(v int) bool {
	for _, sv := range SupportedVersions {
		if sv == v {
			return true
		}
	}
	return false
}

// Range is a symbol's currently active [low, high] bound, reported as a
// two-element array to match the original kconfserver wire shape.
type Range [2]json.Number

// InitialMessage is sent once, immediately after the server starts, per
// spec.md section 6: "Initial message contains version, ranges ...
// visible ... values ... defaults ... warnings".
type InitialMessage struct {
	Version  int                    `json:"version"`
	Ranges   map[string]Range       `json:"ranges"`
	Visible  map[string]bool        `json:"visible"`
	Values   map[string]interface{} `json:"values"`
	Defaults map[string]bool        `json:"defaults"`
	Warnings map[string]string      `json:"warnings"`
}

// Request is one client-issued line, per spec.md section 6: "Requests
// carry version ..., optional set ..., load ..., save ..., reset ...".
type Request struct {
	Version int                    `json:"version" validate:"required"`
	Set     map[string]interface{} `json:"set,omitempty"`
	Load    *string                `json:"load,omitempty"`
	Save    *string                `json:"save,omitempty"`
	Reset   []string               `json:"reset,omitempty"`
}

// Validate checks the request against its struct tags -- version must
// be present and non-zero; deeper checks (is it a supported version)
// belong to Session.Handle, which has the table to answer against.
func (r *Request) Validate() error {
	return validate.Struct(r)
}

// Response is one server-issued line. Only fields that changed as a
// result of the request are populated, per spec.md section 6: "Responses
// carry only changed ranges, visible, values, defaults, plus error".
type Response struct {
	Ranges   map[string]Range       `json:"ranges,omitempty"`
	Visible  map[string]bool        `json:"visible,omitempty"`
	Values   map[string]interface{} `json:"values,omitempty"`
	Defaults map[string]bool        `json:"defaults,omitempty"`
	Error    []string               `json:"error,omitempty"`
}

// HasError reports whether the response carries any error string.
func (r *Response) HasError() bool { return len(r.Error) > 0 }

// AddError appends msg to the response's error list.
func (r *Response) AddError(msg string) {
	r.Error = append(r.Error, msg)
}
