package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Dispatcher fans one publish request out to the requested platform
// adapters concurrently and collects every outcome.
type Dispatcher struct {
	adapters map[string]Adapter
}

func NewDispatcher(adapters ...Adapter) *Dispatcher {
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byName[strings.ToLower(a.Platform())] = a
	}
	return &Dispatcher{adapters: byName}
}

// DispatchAll invokes the adapter for every requested platform and
// waits for all of them to settle. The returned slice has one entry
// per requested platform, in request order; no platform's failure
// touches another's slot.
func (d *Dispatcher) DispatchAll(ctx context.Context, platforms []string, media []MediaItem, caption string, creds *Credentials) []Result {
	req := &Request{
		Media:       media,
		Caption:     caption,
		Credentials: creds,
	}
	if len(media) > 0 {
		req.Kind = KindFromMime(media[0].MimeType)
	}

	results := make([]Result, len(platforms))
	var wg sync.WaitGroup

	for i, name := range platforms {
		adapter, ok := d.adapters[strings.ToLower(name)]
		if !ok {
			results[i] = failure(name, "Unknown platform: "+name)
			continue
		}

		wg.Add(1)
		go func(slot int, platform string, a Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("adapter panicked", "platform", platform, "panic", r)
					results[slot] = failure(platform, fmt.Sprintf("unexpected failure publishing to %s: %v", platform, r))
				}
			}()
			results[slot] = a.Publish(ctx, req)
		}(i, name, adapter)
	}

	wg.Wait()
	return results
}
