package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		limit  int64
		exp    *Request
		expErr error
	}{
		{
			name: "simple_get",
			raw:  "GET /index.html HTTP/1.0\r\nHost: localhost\r\n\r\n",
			exp: &Request{
				Method:  "GET",
				Path:    "/index.html",
				Version: "HTTP/1.0",
				Headers: map[string]string{"Host": "localhost"},
			},
		},
		{
			name: "query_split",
			raw:  "GET /search?a=1&b=2 HTTP/1.0\r\n\r\n",
			exp: &Request{
				Method:  "GET",
				Path:    "/search",
				Query:   "a=1&b=2",
				Version: "HTTP/1.0",
				Headers: map[string]string{},
			},
		},
		{
			name: "header_trimming_and_duplicates",
			raw: "GET / HTTP/1.1\r\n" +
				"  Accept :  text/html  \r\n" +
				"Token: first\r\n" +
				"Token: second\r\n" +
				"not-a-header-line\r\n" +
				"\r\n",
			exp: &Request{
				Method:  "GET",
				Path:    "/",
				Version: "HTTP/1.1",
				Headers: map[string]string{"Accept": "text/html", "Token": "second"},
			},
		},
		{
			name: "post_with_body",
			raw:  "POST /scripts/run HTTP/1.0\r\nContent-Length: 7\r\n\r\na=1&b=2",
			exp: &Request{
				Method:  "POST",
				Path:    "/scripts/run",
				Version: "HTTP/1.0",
				Headers: map[string]string{"Content-Length": "7"},
				Body:    []byte("a=1&b=2"),
			},
		},
		{
			name: "post_without_content_length",
			raw:  "POST /scripts/run HTTP/1.0\r\n\r\nignored",
			exp: &Request{
				Method:  "POST",
				Path:    "/scripts/run",
				Version: "HTTP/1.0",
				Headers: map[string]string{},
			},
		},
		{
			name: "lf_only_lines",
			raw:  "GET /x HTTP/1.0\nHost: h\n\n",
			exp: &Request{
				Method:  "GET",
				Path:    "/x",
				Version: "HTTP/1.0",
				Headers: map[string]string{"Host": "h"},
			},
		},
		{
			name: "missing_final_blank_line",
			raw:  "GET /x HTTP/1.0\r\nHost: h\r\n",
			exp: &Request{
				Method:  "GET",
				Path:    "/x",
				Version: "HTTP/1.0",
				Headers: map[string]string{"Host": "h"},
			},
		},
		{
			name:   "two_token_request_line",
			raw:    "GET /index.html\r\n\r\n",
			expErr: ErrMalformedRequest,
		},
		{
			name:   "one_token_request_line",
			raw:    "GARBAGE\r\n\r\n",
			expErr: ErrMalformedRequest,
		},
		{
			name:   "oversized_headers",
			raw:    "GET /path HTTP/1.0\r\nX-Fill: " + strings.Repeat("a", 100) + "\r\n\r\n",
			limit:  32,
			expErr: ErrRequestTooLarge,
		},
		{
			name:   "oversized_body",
			raw:    "POST /scripts/run HTTP/1.0\r\nContent-Length: 9000\r\n\r\n",
			limit:  64,
			expErr: ErrRequestTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			limit := tt.limit
			if limit == 0 {
				limit = 1 << 20
			}
			req, err := readRequest(strings.NewReader(tt.raw), limit)

			if tt.expErr != nil {
				require.ErrorIs(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.exp, req)
		})
	}
}

func TestReadRequestEmptyStream(t *testing.T) {
	t.Parallel()

	_, err := readRequest(strings.NewReader(""), 1<<20)
	assert.Error(t, err)
}

func TestRequestParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  *Request
		exp  map[string]string
	}{
		{
			name: "query_only",
			req:  &Request{Method: "GET", Query: "a=1&b=2"},
			exp:  map[string]string{"a": "1", "b": "2"},
		},
		{
			name: "get_body_ignored",
			req:  &Request{Method: "GET", Query: "a=1", Body: []byte("b=2")},
			exp:  map[string]string{"a": "1"},
		},
		{
			name: "form_merged_over_query",
			req:  &Request{Method: "POST", Query: "a=1&c=3", Body: []byte("a=9&b=2")},
			exp:  map[string]string{"a": "9", "b": "2", "c": "3"},
		},
		{
			name: "value_missing",
			req:  &Request{Method: "GET", Query: "flag"},
			exp:  map[string]string{"flag": ""},
		},
		{
			name: "empty_pairs_skipped",
			req:  &Request{Method: "GET", Query: "&&a=1&"},
			exp:  map[string]string{"a": "1"},
		},
		{
			name: "empty",
			req:  &Request{Method: "GET"},
			exp:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, tt.req.Params())
		})
	}
}
