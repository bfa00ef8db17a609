package checkout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Opener hands one link to the messaging channel. There is no delivery
// confirmation; a nil error only means the hand-off happened.
type Opener interface {
	Open(ctx context.Context, link string) error
}

// RecordingOpener collects links so the HTTP client can open them.
type RecordingOpener struct {
	mu    sync.Mutex
	links []string
}

func (o *RecordingOpener) Open(_ context.Context, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links = append(o.links, link)
	return nil
}

func (o *RecordingOpener) Links() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.links))
	copy(out, o.links)
	return out
}

// OpenFailure records a link that could not be handed off.
type OpenFailure struct {
	Index int    `json:"index"`
	Link  string `json:"link"`
	Error string `json:"error"`
}

// Dispatcher opens links one after another, Stagger apart.
type Dispatcher struct {
	Opener  Opener
	Stagger time.Duration
	Logger  *zap.Logger
}

// Dispatch opens every link. A single link opens at once; several are
// spaced by Stagger. A failed open never stops the rest. Links not yet
// opened when ctx ends are reported as failures.
func (d *Dispatcher) Dispatch(ctx context.Context, links []string) []OpenFailure {
	var failures []OpenFailure

	for i, link := range links {
		if i > 0 && d.Stagger > 0 {
			if err := sleep(ctx, d.Stagger); err != nil {
				for j := i; j < len(links); j++ {
					failures = append(failures, OpenFailure{Index: j, Link: links[j], Error: err.Error()})
				}
				return failures
			}
		}

		if err := d.Opener.Open(ctx, link); err != nil {
			if d.Logger != nil {
				d.Logger.Warn("failed to open order link", zap.Int("index", i), zap.Error(err))
			}
			failures = append(failures, OpenFailure{Index: i, Link: link, Error: err.Error()})
		}
	}
	return failures
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
