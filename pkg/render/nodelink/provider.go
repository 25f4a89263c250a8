package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/portalcore/pkg/cache"
	"github.com/matzehuels/portalcore/pkg/errors"
)

// Provider lays out a DOT description and returns Graphviz JSON output
// (the -Tjson format) with drawn coordinates.
type Provider interface {
	Layout(ctx context.Context, dot string) ([]byte, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, dot string) ([]byte, error)

// Layout calls f.
func (f ProviderFunc) Layout(ctx context.Context, dot string) ([]byte, error) {
	return f(ctx, dot)
}

// LayoutError reports that no layout could be produced. It is never
// retried.
type LayoutError struct {
	Stage string
	Err   error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout unavailable (%s): %v", e.Stage, e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

// Code marks the error as LAYOUT_UNAVAILABLE.
func (e *LayoutError) Code() errors.Code { return errors.ErrCodeLayoutUnavailable }

// Graphviz is a Provider backed by the in-process Graphviz runtime. The
// runtime is created on first use and reused until Invalidate or Close.
// It is not re-entrant, so layouts run one at a time; concurrent calls
// with the same description share one run.
type Graphviz struct {
	Engine string
	Logger *log.Logger

	mu    sync.Mutex
	gv    *graphviz.Graphviz
	group singleflight.Group
}

// NewGraphviz returns a provider using the named layout engine ("dot"
// when empty).
func NewGraphviz(engine string, logger *log.Logger) *Graphviz {
	if engine == "" {
		engine = string(graphviz.DOT)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Graphviz{Engine: engine, Logger: logger}
}

// Layout implements Provider.
func (p *Graphviz) Layout(ctx context.Context, dot string) ([]byte, error) {
	v, err, shared := p.group.Do(cache.Hash([]byte(dot)), func() (any, error) {
		return p.layout(ctx, dot)
	})
	if shared {
		p.Logger.Debug("shared graphviz layout")
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (p *Graphviz) layout(ctx context.Context, dot string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	gv, err := p.instance(ctx)
	if err != nil {
		return nil, &LayoutError{Stage: "init", Err: err}
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, &LayoutError{Stage: "parse", Err: err}
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format("json"), &buf); err != nil {
		return nil, &LayoutError{Stage: "render", Err: err}
	}
	return buf.Bytes(), nil
}

// instance returns the shared runtime, creating it when needed. The
// caller holds p.mu.
func (p *Graphviz) instance(ctx context.Context) (*graphviz.Graphviz, error) {
	if p.gv != nil {
		return p.gv, nil
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, err
	}
	gv.SetLayout(graphviz.Layout(p.Engine))
	p.Logger.Debug("started graphviz runtime", "engine", p.Engine)
	p.gv = gv
	return gv, nil
}

// Invalidate drops the runtime so the next layout starts a fresh one.
func (p *Graphviz) Invalidate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.release()
}

// Close releases the runtime.
func (p *Graphviz) Close() error { return p.Invalidate() }

func (p *Graphviz) release() error {
	if p.gv == nil {
		return nil
	}
	err := p.gv.Close()
	p.gv = nil
	return err
}
