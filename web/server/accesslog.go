package server

import (
	"fmt"
	"io"
	"net/http"
	"sync"
)

// AccessLog writes one line per completed request. Writes are unbuffered and
// serialized, so lines stay whole and can be tailed live.
type AccessLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAccessLog returns an AccessLog writing to w.
func NewAccessLog(w io.Writer) *AccessLog {
	return &AccessLog{w: w}
}

// Log records one completed exchange.
func (l *AccessLog) Log(method, clientIP, path string, status int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s %s -> %d (%s)\n",
		method, clientIP, path, status, http.StatusText(status))
}
