package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Document is a decoded JSON object returned by CMR.
type Document map[string]any

// Response is the normalised result of one request.
//
// Exactly one of Document and Raw is meaningful: Document holds the decoded
// JSON object (a bare JSON list is wrapped as {"hits": n, "items": list}), Raw
// holds the body text when it could not be decoded as a JSON object.
type Response struct {
	StatusCode int
	Header     http.Header
	Document   Document
	Raw        string
}

// IsRaw reports whether the body could not be decoded as JSON.
func (r *Response) IsRaw() bool {
	return r.Document == nil
}

// Errors returns the remote error object carried by the document, if any. A
// non-2xx document without an "errors" key still yields an error object built
// from its status and "message" field.
func (r *Response) Errors() *ErrorResponse {
	if r.Document == nil {
		return nil
	}
	raw, ok := r.Document["errors"]
	if !ok {
		if r.StatusCode < http.StatusMultipleChoices {
			return nil
		}
		return statusError(r)
	}

	e := &ErrorResponse{
		Code:    r.StatusCode,
		Payload: r.Document,
	}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			e.Errors = append(e.Errors, fmt.Sprint(item))
		}
	case string:
		e.Errors = []string{v}
	default:
		e.Errors = []string{fmt.Sprint(v)}
	}
	if code, ok := r.Document["code"].(float64); ok {
		e.Code = int(code)
	}
	if reason, ok := r.Document["reason"].(string); ok {
		e.Reason = reason
	}
	return e
}

func statusError(r *Response) *ErrorResponse {
	msg, _ := r.Document["message"].(string)
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", r.StatusCode)
	}
	return &ErrorResponse{
		Errors:  []string{msg},
		Code:    r.StatusCode,
		Reason:  http.StatusText(r.StatusCode),
		Payload: r.Document,
	}
}

// Int reads a numeric field from the document. JSON numbers decode as float64.
func (r *Response) Int(key string) int {
	if r.Document == nil {
		return 0
	}
	switch v := r.Document[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// IntOrHeader reads key from the document, falling back to the numeric
// response header when the document does not carry it.
func (r *Response) IntOrHeader(key, header string) int {
	if r.Document != nil {
		if _, ok := r.Document[key]; ok {
			return r.Int(key)
		}
	}
	n, _ := strconv.Atoi(r.Header.Get(header))
	return n
}

// Items returns the "items" list of the document.
func (r *Response) Items() []any {
	if r.Document == nil {
		return nil
	}
	items, _ := r.Document["items"].([]any)
	return items
}

// newResponse applies the transport contract to a raw HTTP exchange.
func newResponse(status int, header http.Header, body []byte) *Response {
	resp := &Response{
		StatusCode: status,
		Header:     header,
	}

	switch {
	case status == http.StatusNoContent:
		resp.Document = Document{}
		return resp
	case status == http.StatusOK:
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			switch v := decoded.(type) {
			case map[string]any:
				resp.Document = Document(v)
				return resp
			case []any:
				resp.Document = Document{"hits": float64(len(v)), "items": v}
				return resp
			}
		}
	default:
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err == nil && decoded != nil {
			resp.Document = Document(decoded)
			return resp
		}
	}

	resp.Raw = strings.TrimSpace(string(body))
	return resp
}
