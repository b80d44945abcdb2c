package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Header is a single response header. Order is preserved on the wire.
type Header struct {
	Name  string
	Value string
}

// Response is a single HTTP response. Every response carries
// "Connection: close" immediately after the status line; any further headers
// follow in the order they were added.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}

// NewResponse returns a response with the given status code and no body.
func NewResponse(status int) *Response {
	return &Response{Status: status}
}

// AddHeader appends a header.
func (r *Response) AddHeader(name, value string) {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

// SetBody attaches a body with its content type and an accurate
// Content-Length header.
func (r *Response) SetBody(body []byte, contentType string) {
	r.Body = body
	r.AddHeader("Content-Type", contentType)
	r.AddHeader("Content-Length", strconv.Itoa(len(body)))
}

// WriteTo writes the response to w in a single write. The status line echoes
// the client's HTTP version token.
func (r *Response) WriteTo(w io.Writer, version string) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d %s\r\n", version, r.Status, http.StatusText(r.Status))
	b.WriteString("Connection: close\r\n")
	for _, h := range r.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.Name, h.Value)
	}
	b.WriteString("\r\n")
	b.Write(r.Body)

	if _, err := w.Write(b.Bytes()); err != nil {
		return fmt.Errorf("failed writing response: %w", err)
	}

	return nil
}
