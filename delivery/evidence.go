package delivery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/metrics"
	"github.com/higress-group/docqa-bot/render"
	"github.com/higress-group/docqa-bot/schema"
)

// EvidenceResolver renders evidence pages and sends them as captioned images.
type EvidenceResolver struct {
	Rasterizer render.Rasterizer
	// Timeout bounds each page render, zero means no bound.
	Timeout time.Duration
	// CaptionFormat takes the page reference.
	CaptionFormat string
	// FailureFormat takes the page reference and the error detail.
	FailureFormat string
}

// ParsePage converts a stored page reference into a 1-based page number.
func ParsePage(ref string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil {
		return 0, fmt.Errorf("invalid page reference %q", ref)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid page number %d", n)
	}
	return n, nil
}

// Resolve delivers every page in order. A page that cannot be parsed, rendered or sent
// is reported to the sink as a text notice and does not stop the remaining pages.
// The returned error aggregates per-page failures, each wrapping schema.ErrEvidenceRenderFailed.
func (r *EvidenceResolver) Resolve(ctx context.Context, pages []string, sink Sink) (delivered int, err error) {
	var result *multierror.Error
	for _, ref := range pages {
		if perr := r.deliverPage(ctx, ref, sink); perr != nil {
			metrics.IncEvidencePage("failed")
			logger.Warnf("evidence: page %s failed: %v", ref, perr)
			result = multierror.Append(result, fmt.Errorf("%w: page %s: %v", schema.ErrEvidenceRenderFailed, ref, perr))
			if nerr := sink.SendText(ctx, fmt.Sprintf(r.failureFormat(), ref, perr)); nerr != nil {
				logger.Warnf("evidence: failure notice for page %s not sent: %v", ref, nerr)
			}
			continue
		}
		metrics.IncEvidencePage("ok")
		delivered++
	}
	return delivered, result.ErrorOrNil()
}

func (r *EvidenceResolver) deliverPage(ctx context.Context, ref string, sink Sink) error {
	if r.Rasterizer == nil {
		return fmt.Errorf("no source document configured")
	}
	page, err := ParsePage(ref)
	if err != nil {
		return err
	}
	rctx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	img, err := r.Rasterizer.RenderPage(rctx, page)
	if err != nil {
		return err
	}
	img.Page = ref
	return sink.SendImage(ctx, img, fmt.Sprintf(r.captionFormat(), ref))
}

func (r *EvidenceResolver) captionFormat() string {
	if r.CaptionFormat == "" {
		return "Страница %s"
	}
	return r.CaptionFormat
}

func (r *EvidenceResolver) failureFormat() string {
	if r.FailureFormat == "" {
		return "Ошибка при извлечении страницы %s: %s"
	}
	return r.FailureFormat
}
