package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"
)

// Errors that abandon a connection without a response.
var (
	// ErrMalformedRequest marks requests whose request line could not be
	// parsed.
	ErrMalformedRequest = errors.New("malformed request line")
	// ErrRequestTooLarge marks requests exceeding the configured size limit.
	ErrRequestTooLarge = errors.New("request exceeds size limit")
)

// Request is a single parsed HTTP request. It is immutable after parsing.
type Request struct {
	Method  string
	Path    string            // target path, query excluded, leading slash kept
	Query   string            // raw query string, without the leading '?'
	Version string            // HTTP version token, echoed in the status line
	Headers map[string]string // names as received; last duplicate wins
	Body    []byte
}

// Params merges the parsed query-string pairs with the form-body pairs of a
// POST request. Form values overwrite query values of the same name.
func (r *Request) Params() map[string]string {
	params := parsePairs(r.Query)
	if r.Method == http.MethodPost {
		maps.Copy(params, parsePairs(string(r.Body)))
	}
	return params
}

// parsePairs splits a "key=value&key=value" string. Empty pairs and pairs
// with an empty key are skipped; the last value wins for duplicate keys.
func parsePairs(s string) map[string]string {
	pairs := map[string]string{}
	for _, kv := range strings.Split(s, "&") {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" {
			continue
		}
		pairs[k] = v
	}
	return pairs
}

// readRequest reads exactly one request from conn: header lines until the
// first blank line, then exactly Content-Length body bytes for POST requests.
// The combined size is bounded by limit. Malformed request lines and
// oversized requests return an error and no partial request.
func readRequest(conn io.Reader, limit int64) (*Request, error) {
	lr := &io.LimitedReader{R: conn, N: limit}
	br := bufio.NewReader(lr)

	line, err := readLine(br)
	if err != nil {
		if errors.Is(err, io.EOF) && lr.N == 0 {
			return nil, ErrRequestTooLarge
		}
		return nil, fmt.Errorf("failed reading request line: %w", err)
	}

	tokens := strings.Fields(line)
	if len(tokens) != 3 {
		return nil, ErrMalformedRequest
	}

	req := &Request{
		Method:  tokens[0],
		Version: tokens[2],
		Headers: map[string]string{},
	}
	req.Path, req.Query, _ = strings.Cut(tokens[1], "?")

	for {
		line, err = readLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if lr.N == 0 {
					return nil, ErrRequestTooLarge
				}
				// The client closed the stream without a blank line; treat
				// the headers as complete.
				break
			}
			return nil, fmt.Errorf("failed reading request headers: %w", err)
		}
		if line == "" {
			break
		}
		name, val, ok := strings.Cut(line, ":")
		if !ok {
			// Malformed header lines are ignored.
			continue
		}
		req.Headers[strings.TrimSpace(name)] = strings.TrimSpace(val)
	}

	if req.Method == http.MethodPost {
		length, err := strconv.ParseInt(req.Headers["Content-Length"], 10, 64)
		if err != nil || length < 0 {
			length = 0
		}
		// Body bytes may already sit in the bufio buffer, where they have
		// been counted against the limit.
		if length > lr.N+int64(br.Buffered()) {
			return nil, ErrRequestTooLarge
		}
		if length > 0 {
			req.Body = make([]byte, length)
			if _, err := io.ReadFull(br, req.Body); err != nil {
				return nil, fmt.Errorf("failed reading request body: %w", err)
			}
		}
	}

	return req, nil
}

// readLine reads one LF- or CRLF-terminated line. A final unterminated line
// before EOF is returned without an error; the next call reports io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}
