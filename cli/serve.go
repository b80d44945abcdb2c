package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/webfold/app/context"
	aerrors "go.hackfix.me/webfold/app/errors"
	"go.hackfix.me/webfold/web/server"
)

// Serve starts the web server.
type Serve struct {
	Port portField `arg:"" help:"Port to listen on."`
	Root string    `arg:"" help:"Path to the root folder to serve."`

	//nolint:lll // Long struct tags are unavoidable.
	MaxRequestBytes int64         `default:"1048576" help:"Maximum size of a single request in bytes, headers and body included."`
	MaxConns        int           `default:"256" help:"Maximum number of concurrently served connections. 0 means no limit."`
	ScriptTimeout   time.Duration `default:"0" help:"Time limit for a single script execution. 0 disables the limit."`
	ForbiddenDirs   []string      `default:"forbidden,secret" help:"Directory names that are never served."`
	ForbiddenFiles  []string      `default:"forbidden.html" help:"File names that are never served."`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	root, err := resolveRoot(appCtx.FS, c.Root)
	if err != nil {
		return err
	}

	srv, err := server.New(appCtx, server.Config{
		Address:         fmt.Sprintf("0.0.0.0:%d", c.Port),
		Root:            root,
		MaxRequestBytes: c.MaxRequestBytes,
		MaxConns:        c.MaxConns,
		ScriptTimeout:   c.ScriptTimeout,
		ForbiddenDirs:   c.ForbiddenDirs,
		ForbiddenFiles:  c.ForbiddenFiles,
	})
	if err != nil {
		return err
	}

	if err = srv.Listen(); err != nil {
		return aerrors.NewWithCause("failed starting web server", err, "port", c.Port)
	}

	fmt.Fprintf(appCtx.Stdout, "Root folder: %s\n", root)
	fmt.Fprintf(appCtx.Stdout, "Listening on %s\n", srv.Addr())

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	// See https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
	srvDone := make(chan error)
	go func() {
		srvErr := srv.Serve()
		slog.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigCh:
		slog.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		slog.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil {
			return fmt.Errorf("web server error: %w", srvErr)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	return nil
}

// resolveRoot returns the canonical absolute form of the root folder, which
// must exist and be a directory. Symlinks are resolved when the root lives on
// the real filesystem; virtual filesystems have no symlinks to resolve.
func resolveRoot(fs vfs.FileSystem, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed resolving root folder: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	fi, err := fs.Stat(abs)
	if err != nil {
		return "", aerrors.NewWithCause("root folder does not exist", err, "path", root)
	}
	if !fi.IsDir() {
		return "", aerrors.NewWith("root folder is not a directory", "path", root)
	}

	return abs, nil
}

type portField uint16

func (p portField) Validate() error {
	if p == 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}
