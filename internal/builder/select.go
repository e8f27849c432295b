package builder

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Select probes Msim, Ghdl and Xvhdl concurrently via errgroup (three
// independent I/O-bound subprocess calls; Fallback needs no probe
// round-trip), then returns the first available one in spec §4.4's
// preference order (msim > ghdl > xvhdl > fallback). If legacyPreference
// names one of those adapters by Name() and it probes available, it is
// honored ahead of the default ordering — the legacy config's `builder =`
// line overriding the otherwise-fixed preference. Fallback is always
// available, so Select never returns a nil adapter.
func Select(ctx context.Context, root string, legacyPreference string) (Adapter, Availability) {
	candidates := []Adapter{
		NewMsim(root),
		NewGhdl(root),
		NewXvhdl(root),
	}
	avail := make([]Availability, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			avail[i] = c.Probe(gctx)
			return nil
		})
	}
	_ = g.Wait() // probes never return an error; availability is per-adapter

	if legacyPreference != "" {
		for i, c := range candidates {
			if c.Name() == legacyPreference && avail[i].Available {
				return c, avail[i]
			}
		}
	}
	for i, c := range candidates {
		if avail[i].Available {
			return c, avail[i]
		}
	}
	fallback := NewFallback()
	return fallback, fallback.Probe(ctx)
}
