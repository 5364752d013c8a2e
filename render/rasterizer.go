package render

import (
	"context"
	"errors"
	"strconv"

	"github.com/higress-group/docqa-bot/cache"
	"github.com/higress-group/docqa-bot/schema"
)

// ErrPageOutOfRange is returned for page numbers outside the document.
var ErrPageOutOfRange = errors.New("page out of range")

// Rasterizer renders 1-based pages of a single source document.
type Rasterizer interface {
	RenderPage(ctx context.Context, page int) (schema.PageImage, error)
}

// Cached memoizes rendered pages of an immutable document.
type Cached struct {
	next  Rasterizer
	pages cache.Cache[schema.PageImage]
}

func NewCached(next Rasterizer, pages cache.Cache[schema.PageImage]) *Cached {
	return &Cached{next: next, pages: pages}
}

func (c *Cached) RenderPage(ctx context.Context, page int) (schema.PageImage, error) {
	key := strconv.Itoa(page)
	if img, ok := c.pages.Get(key); ok {
		return img, nil
	}
	img, err := c.next.RenderPage(ctx, page)
	if err != nil {
		return schema.PageImage{}, err
	}
	c.pages.Set(key, img, 0)
	return img, nil
}
