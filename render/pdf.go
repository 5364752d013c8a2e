package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"strconv"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/model"
	unirender "github.com/unidoc/unipdf/v3/render"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// PDFRasterizer renders pages of a PDF file to JPEG with unipdf.
type PDFRasterizer struct {
	path    string
	width   int
	quality int

	mu     sync.Mutex // PdfReader is not safe for concurrent use
	reader *model.PdfReader
	pages  int
}

// NewPDFRasterizer opens the document once and keeps the parsed reader.
func NewPDFRasterizer(cfg config.RenderConfig) (*PDFRasterizer, error) {
	if cfg.LicenseKey != "" {
		if err := license.SetMeteredKey(cfg.LicenseKey); err != nil {
			return nil, fmt.Errorf("unipdf license failed, err: %w", err)
		}
	}
	data, err := os.ReadFile(cfg.Document)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s failed, err: %w", cfg.Document, err)
	}
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s failed, err: %w", cfg.Document, err)
	}
	n, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("count pages of %s failed, err: %w", cfg.Document, err)
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &PDFRasterizer{
		path:    cfg.Document,
		width:   cfg.Width,
		quality: quality,
		reader:  reader,
		pages:   n,
	}, nil
}

// PageCount returns the number of pages in the document.
func (r *PDFRasterizer) PageCount() int { return r.pages }

func (r *PDFRasterizer) RenderPage(ctx context.Context, page int) (schema.PageImage, error) {
	if page < 1 || page > r.pages {
		return schema.PageImage{}, fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, page, r.pages)
	}
	if err := ctx.Err(); err != nil {
		return schema.PageImage{}, err
	}

	type result struct {
		img schema.PageImage
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := r.render(page)
		done <- result{img, err}
	}()
	select {
	case res := <-done:
		return res.img, res.err
	case <-ctx.Done():
		return schema.PageImage{}, ctx.Err()
	}
}

func (r *PDFRasterizer) render(page int) (schema.PageImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.reader.GetPage(page)
	if err != nil {
		return schema.PageImage{}, fmt.Errorf("get page %d failed, err: %w", page, err)
	}
	device := unirender.NewImageDevice()
	if r.width > 0 {
		device.OutputWidth = r.width
	}
	img, err := device.Render(p)
	if err != nil {
		return schema.PageImage{}, fmt.Errorf("render page %d failed, err: %w", page, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return schema.PageImage{}, fmt.Errorf("encode page %d failed, err: %w", page, err)
	}
	return schema.PageImage{Page: strconv.Itoa(page), MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}
