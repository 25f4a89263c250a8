package observability

import (
	"context"
	"testing"
	"time"
)

type countingPipeline struct {
	NoopPipelineHooks
	compiles int
}

func (c *countingPipeline) OnCompile(context.Context, int, time.Duration, error) { c.compiles++ }

type cacheOnly struct{ NoopCacheHooks }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	Pipeline().OnBuildStart(ctx, 12)
	Pipeline().OnLayoutComplete(ctx, "dot", time.Second, nil)
	Cache().OnCacheMiss(ctx, "layout")
	HTTP().OnResponse(ctx, "POST", "/v1/filters/compile", 200, time.Millisecond)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
}

func TestInstall(t *testing.T) {
	tests := []struct {
		name string
		h    any
		want int
	}{
		{"tracing matches all", NewTracingHooks(nil), 3},
		{"cache only", cacheOnly{}, 1},
		{"unrelated", "not hooks", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			defer Reset()
			if got := Install(tt.h); got != tt.want {
				t.Errorf("Install() matched %d interfaces, want %d", got, tt.want)
			}
		})
	}
}

func TestSetPipelineHooks(t *testing.T) {
	Reset()
	defer Reset()

	p := &countingPipeline{}
	SetPipelineHooks(p)
	SetPipelineHooks(nil)
	Pipeline().OnCompile(context.Background(), 2, time.Millisecond, nil)

	if p.compiles != 1 {
		t.Errorf("compiles = %d, want 1 (nil must not replace installed hooks)", p.compiles)
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetPipelineHooks should not touch cache hooks")
	}

	SetCacheHooks(cacheOnly{})
	SetHTTPHooks(NoopHTTPHooks{})
	if _, ok := Cache().(cacheOnly); !ok {
		t.Errorf("Cache() = %T, want cacheOnly", Cache())
	}
}
