package main

import (
	"os"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/webfold/app"
	actx "go.hackfix.me/webfold/app/context"
	aerrors "go.hackfix.me/webfold/app/errors"
)

func main() {
	a, err := app.New("webfold",
		app.WithEnv(osEnv{}),
		app.WithFDs(
			os.Stdin,
			colorable.NewColorable(os.Stdout),
			colorable.NewColorable(os.Stderr),
		),
		app.WithFS(osfs.New()),
		app.WithLogger(
			isatty.IsTerminal(os.Stdout.Fd()),
			isatty.IsTerminal(os.Stderr.Fd()),
		),
	)
	if err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
	if err = a.Run(os.Args[1:]); err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
}

type osEnv struct{}

var _ actx.Environment = osEnv{}

func (osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (osEnv) Set(key, val string) error {
	//nolint:wrapcheck // This is fine.
	return os.Setenv(key, val)
}

func (osEnv) Environ() []string {
	return os.Environ()
}
