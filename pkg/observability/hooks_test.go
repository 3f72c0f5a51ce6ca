package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Panel hooks
	p := NoopPanelHooks{}
	p.OnFetchStart(ctx, "price")
	p.OnFetchComplete(ctx, "price", "ok", time.Second, nil)
	p.OnCompose(ctx, 12, 0, time.Second, nil)
	p.OnPush(ctx, "inky", time.Second, nil)
	p.OnRunComplete(ctx, "run-1", "rendered", time.Second)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "price")
	c.OnCacheMiss(ctx, "quote")
	c.OnCacheSet(ctx, "outdoor", 64)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.kraken.com", "/0/public/Ticker")
	h.OnResponse(ctx, "GET", "api.kraken.com", "/0/public/Ticker", 200, time.Second)
	h.OnError(ctx, "GET", "api.kraken.com", "/0/public/Ticker", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Panel().(NoopPanelHooks); !ok {
		t.Error("Panel() should return NoopPanelHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPanel := &testPanelHooks{}
	SetPanelHooks(customPanel)
	if Panel() != customPanel {
		t.Error("SetPanelHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Panel().(NoopPanelHooks); !ok {
		t.Error("Reset() should restore NoopPanelHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPanelHooks{}
	SetPanelHooks(custom)

	SetPanelHooks(nil)
	if Panel() != custom {
		t.Error("SetPanelHooks(nil) should be ignored")
	}

	Reset()
}

type testPanelHooks struct{ NoopPanelHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
