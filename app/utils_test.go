package app

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	actx "go.hackfix.me/webfold/app/context"
)

type testApp struct {
	*App
	stdout, stderr *syncBuffer
	env            *mockEnv
}

func newTestApp(ctx context.Context) (*testApp, error) {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := &mockEnv{env: map[string]string{}}

	app, err := New("webfold",
		WithContext(ctx),
		WithEnv(env),
		WithFDs(strings.NewReader(""), stdout, stderr),
		WithFS(memoryfs.New()),
		WithLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	return &testApp{App: app, stdout: stdout, stderr: stderr, env: env}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}

func (me *mockEnv) Environ() []string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	pairs := make([]string, 0, len(me.env))
	for k, v := range me.env {
		pairs = append(pairs, k+"="+v)
	}
	return pairs
}
