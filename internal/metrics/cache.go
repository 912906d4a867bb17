package metrics

import (
	"context"

	"github.com/tendant/digimenu/pkg/catalog"
)

type instrumentedCache struct {
	next    catalog.MenuCache
	metrics *Metrics
}

// InstrumentMenuCache counts hits, misses and errors of a menu cache.
func InstrumentMenuCache(next catalog.MenuCache, m *Metrics) catalog.MenuCache {
	return &instrumentedCache{next: next, metrics: m}
}

func (c *instrumentedCache) Get(ctx context.Context, slug string) (*catalog.PublicMenu, int64, error) {
	menu, gen, err := c.next.Get(ctx, slug)
	switch {
	case err != nil:
		c.metrics.ObserveMenuCache("error")
	case menu != nil:
		c.metrics.ObserveMenuCache("hit")
	default:
		c.metrics.ObserveMenuCache("miss")
	}
	return menu, gen, err
}

func (c *instrumentedCache) Set(ctx context.Context, slug string, gen int64, menu *catalog.PublicMenu) error {
	return c.next.Set(ctx, slug, gen, menu)
}

func (c *instrumentedCache) Delete(ctx context.Context, slug string) error {
	return c.next.Delete(ctx, slug)
}
