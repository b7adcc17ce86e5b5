package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name    string
	delay   time.Duration
	result  Result
	panics  bool
	mu      sync.Mutex
	lastReq *Request
}

func (f *fakeAdapter) Platform() string { return f.name }

func (f *fakeAdapter) Publish(ctx context.Context, req *Request) Result {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	return f.result
}

func TestDispatchAllKeepsRequestOrder(t *testing.T) {
	slow := &fakeAdapter{name: "facebook", delay: 50 * time.Millisecond, result: success("facebook", "fb-1", "")}
	fast := &fakeAdapter{name: "telegram", result: success("telegram", "tg-1", "")}
	d := NewDispatcher(slow, fast)

	results := d.DispatchAll(context.Background(), []string{"facebook", "telegram"}, nil, "hello", nil)

	require.Len(t, results, 2)
	assert.Equal(t, "facebook", results[0].Platform)
	assert.Equal(t, "telegram", results[1].Platform)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
}

func TestDispatchAllUnknownPlatform(t *testing.T) {
	d := NewDispatcher(&fakeAdapter{name: "telegram", result: success("telegram", "tg-1", "")})

	results := d.DispatchAll(context.Background(), []string{"myspace", "telegram"}, nil, "", nil)

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, "Unknown platform: myspace", results[0].Error)
	assert.True(t, results[1].Success)
}

func TestDispatchAllCaseInsensitiveLookup(t *testing.T) {
	d := NewDispatcher(&fakeAdapter{name: "Telegram", result: success("telegram", "tg-1", "")})

	results := d.DispatchAll(context.Background(), []string{"TELEGRAM"}, nil, "", nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestDispatchAllRecoversAdapterPanic(t *testing.T) {
	panicky := &fakeAdapter{name: "facebook", panics: true}
	healthy := &fakeAdapter{name: "telegram", result: success("telegram", "tg-1", "")}
	d := NewDispatcher(panicky, healthy)

	results := d.DispatchAll(context.Background(), []string{"facebook", "telegram"}, nil, "", nil)

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "unexpected failure publishing to facebook")
	assert.True(t, results[1].Success)
}

func TestDispatchAllSharesOneRequest(t *testing.T) {
	a := &fakeAdapter{name: "facebook", result: success("facebook", "fb-1", "")}
	b := &fakeAdapter{name: "telegram", result: success("telegram", "tg-1", "")}
	d := NewDispatcher(a, b)

	media := []MediaItem{{Path: "x.mp4", MimeType: "video/mp4"}}
	d.DispatchAll(context.Background(), []string{"facebook", "telegram"}, media, "caption", &Credentials{})

	require.NotNil(t, a.lastReq)
	require.NotNil(t, b.lastReq)
	assert.Equal(t, KindVideo, a.lastReq.Kind)
	assert.Equal(t, "caption", b.lastReq.Caption)
	assert.Same(t, a.lastReq, b.lastReq)
}

func TestDispatchAllEmptyPlatforms(t *testing.T) {
	d := NewDispatcher()

	results := d.DispatchAll(context.Background(), nil, nil, "", nil)

	assert.Empty(t, results)
}

func TestStubAdapterSettlesAsComingSoon(t *testing.T) {
	stub := NewStubAdapter("instagram")

	res := stub.Publish(context.Background(), &Request{})

	assert.False(t, res.Success)
	assert.Equal(t, "instagram", res.Platform)
	assert.Equal(t, "instagram publishing is coming soon", res.Error)
}
