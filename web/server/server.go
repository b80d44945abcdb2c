// Package server implements the HTTP origin server: it accepts TCP
// connections, parses one request per connection, dispatches it to the path
// resolver, directory lister, script executor or static read, and writes the
// response before closing the connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/webfold/app/context"
	"go.hackfix.me/webfold/cgi"
	"go.hackfix.me/webfold/webroot"
)

// Config controls the behavior of a Server.
type Config struct {
	// Address is the [host]:port the server will listen on.
	Address string
	// Root is the absolute path of the served root folder.
	Root string
	// MaxRequestBytes bounds the size of a single request, headers and body
	// included. Oversized requests are dropped without a response.
	MaxRequestBytes int64
	// MaxConns caps the number of concurrently served connections.
	// 0 means no limit.
	MaxConns int
	// ScriptTimeout bounds a single script execution. 0 means no limit.
	ScriptTimeout time.Duration
	// ForbiddenDirs and ForbiddenFiles name entries that are never served.
	ForbiddenDirs  []string
	ForbiddenFiles []string
}

// Server serves one HTTP exchange per accepted TCP connection.
type Server struct {
	cfg      Config
	ctx      context.Context
	root     vfs.FileSystem // projection of cfg.Root
	resolver *webroot.Resolver
	executor *cgi.Executor
	access   *AccessLog
	logger   *slog.Logger
	idGen    func() string

	ln     net.Listener
	conns  chan struct{} // admission semaphore, nil when unlimited
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New returns a Server serving cfg.Root. The root folder is mounted as its
// own filesystem, so even a resolver defect cannot read outside of it.
func New(appCtx *actx.Context, cfg Config) (*Server, error) {
	rootFS, err := projectionfs.New(appCtx.FS, cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed mounting root folder %s: %w", cfg.Root, err)
	}

	var baseEnv []string
	if appCtx.Env != nil {
		baseEnv = appCtx.Env.Environ()
	}

	srv := &Server{
		cfg:      cfg,
		ctx:      appCtx.Ctx,
		root:     rootFS,
		resolver: webroot.NewResolver(rootFS, cfg.ForbiddenDirs, cfg.ForbiddenFiles),
		executor: &cgi.Executor{Env: baseEnv, Timeout: cfg.ScriptTimeout},
		access:   NewAccessLog(appCtx.Stdout),
		logger:   appCtx.Logger.With("component", "httpd"),
		idGen:    appCtx.UUIDGen,
	}
	if cfg.MaxConns > 0 {
		srv.conns = make(chan struct{}, cfg.MaxConns)
	}

	return srv, nil
}

// Listen binds the listening socket and stores the actual listen address,
// which is convenient when the address is dynamically determined by the
// system (e.g. ':0').
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed binding %s: %w", s.cfg.Address, err)
	}

	s.ln = ln
	s.cfg.Address = ln.Addr().String()
	s.logger.Info("started listener", "address", s.cfg.Address, "root", s.cfg.Root)

	return nil
}

// Addr returns the actual listen address. Listen must be called first.
func (s *Server) Addr() string {
	return s.cfg.Address
}

// Serve accepts connections until the listener is closed. Each connection is
// handled in its own goroutine, so one slow client or long-running script
// cannot stall others. Accept errors are logged and the loop continues.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("failed accepting connection", "error", err)
			continue
		}

		if s.conns != nil {
			s.conns <- struct{}{}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if s.conns != nil {
				defer func() { <-s.conns }()
			}
			s.handle(conn)
		}()
	}
}

// Shutdown closes the listener and waits for in-flight connections to finish,
// or for ctx to be done, whichever comes first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			return fmt.Errorf("failed closing listener: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		//nolint:wrapcheck // This is fine.
		return ctx.Err()
	}
}
