package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/higress-group/docqa-bot/cache"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

type countingRasterizer struct {
	calls map[int]int
	fail  map[int]error
}

func (c *countingRasterizer) RenderPage(ctx context.Context, page int) (schema.PageImage, error) {
	c.calls[page]++
	if err := c.fail[page]; err != nil {
		return schema.PageImage{}, err
	}
	return schema.PageImage{Page: "p", MIMEType: "image/jpeg", Data: []byte{byte(page)}}, nil
}

func TestCachedRendersOncePerPage(t *testing.T) {
	inner := &countingRasterizer{calls: map[int]int{}, fail: map[int]error{9: errors.New("bad page")}}
	r := NewCached(inner, cache.NewLRU[schema.PageImage](8, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		img, err := r.RenderPage(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []byte{5}, img.Data)
	}
	assert.Equal(t, 1, inner.calls[5])

	// failures are not cached
	for i := 0; i < 2; i++ {
		_, err := r.RenderPage(ctx, 9)
		assert.Error(t, err)
	}
	assert.Equal(t, 2, inner.calls[9])
}

func TestNewPDFRasterizerMissingFile(t *testing.T) {
	_, err := NewPDFRasterizer(config.RenderConfig{Document: "does-not-exist.pdf"})
	assert.Error(t, err)
}
