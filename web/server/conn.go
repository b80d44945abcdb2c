package server

import (
	"log/slog"
	"net"
	"net/http"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/webfold/cgi"
	"go.hackfix.me/webfold/webroot"
)

// handle serves one HTTP exchange and closes the connection. All errors are
// contained here; a failing connection never affects the accept loop.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With("conn_id", s.idGen())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection handler panicked", "panic", r)
		}
	}()

	req, err := readRequest(conn, s.cfg.MaxRequestBytes)
	if err != nil {
		// Malformed and oversized requests are dropped without a response.
		logger.Debug("dropped connection", "error", err)
		return
	}

	resp := s.route(req, logger)
	if err := resp.WriteTo(conn, req.Version); err != nil {
		logger.Debug("failed writing response", "error", err)
	}
	s.access.Log(req.Method, clientIP(conn), req.Path, resp.Status)
}

// route produces the response for a parsed request. Dispatch order: method
// gate, guard, directory listing, script execution, static read, not found.
func (s *Server) route(req *Request, logger *slog.Logger) *Response {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		return NewResponse(http.StatusMethodNotAllowed)
	}

	res := s.resolver.Resolve(req.Path)
	switch res.Kind {
	case webroot.KindForbidden:
		return NewResponse(http.StatusForbidden)
	case webroot.KindDir:
		html, err := webroot.Listing(s.root, res.Path)
		if err != nil {
			logger.Warn("failed listing directory", "path", res.Path, "error", err)
			return NewResponse(http.StatusInternalServerError)
		}
		resp := NewResponse(http.StatusOK)
		resp.SetBody([]byte(html), "text/html; charset=utf-8")
		return resp
	case webroot.KindFile:
		if res.InDir(webroot.ScriptsDir) {
			return s.runScript(req, res, logger)
		}
		return s.serveFile(res, logger)
	default:
		return NewResponse(http.StatusNotFound)
	}
}

// serveFile reads a static file through the root projection.
func (s *Server) serveFile(res webroot.Resolved, logger *slog.Logger) *Response {
	contents, err := vfs.ReadFile(s.root, res.Path)
	if err != nil {
		// The file existed at resolution time but could not be read. Respond
		// with 404 rather than 403, so unreadable files are indistinguishable
		// from missing ones.
		logger.Warn("failed reading file", "path", res.Path, "error", err)
		return NewResponse(http.StatusNotFound)
	}

	resp := NewResponse(http.StatusOK)
	resp.SetBody(contents, webroot.MIMEType(res.Path))
	return resp
}

// runScript executes a file under scripts/ and relays its output. The
// executor needs the real filesystem path, not the projected one.
func (s *Server) runScript(req *Request, res webroot.Resolved, logger *slog.Logger) *Response {
	result, err := s.executor.Execute(s.ctx, cgi.Invocation{
		ScriptPath: filepath.Join(s.cfg.Root, filepath.FromSlash(res.Path)),
		Method:     req.Method,
		Path:       req.Path,
		Headers:    req.Headers,
		Params:     req.Params(),
		Body:       req.Body,
	})
	if err != nil {
		logger.Warn("failed executing script", "path", res.Path, "error", err)
		return NewResponse(http.StatusInternalServerError)
	}

	resp := NewResponse(result.Status)
	for _, h := range result.Headers {
		resp.AddHeader(h.Name, h.Value)
	}
	resp.Body = result.Body
	return resp
}

// clientIP extracts the peer IP address for access logging.
func clientIP(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "unknown"
	}
	return host
}
