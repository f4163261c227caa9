package resolver

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

// urlRe finds http(s) links embedded in share text
var urlRe = regexp.MustCompile(`https?://[A-Za-z0-9$\-_@.&+!*(),%/?=#~:;]+`)

// Config contains the endpoints and client settings used by the remote variants
type Config struct {
	DouyinShareBase   string
	DouyinUserAgent   string
	BilibiliAPIBase   string
	BilibiliUserAgent string
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Dispatcher tries its variants in a fixed order; the first match wins
type Dispatcher struct {
	variants []Variant
}

// NewDispatcher creates a dispatcher over variants in priority order
func NewDispatcher(variants ...Variant) *Dispatcher {
	return &Dispatcher{variants: variants}
}

// New creates the standard dispatcher: local files, then Bilibili, then Douyin
func New(cfg Config) *Dispatcher {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return NewDispatcher(
		NewLocal(),
		NewBilibili(client, cfg.BilibiliAPIBase, cfg.BilibiliUserAgent),
		NewDouyin(client, cfg.DouyinShareBase, cfg.DouyinUserAgent),
	)
}

// Variants returns the dispatch table in priority order
func (d *Dispatcher) Variants() []Variant {
	return d.variants
}

// Resolve returns the item produced by the first variant that matches input
func (d *Dispatcher) Resolve(ctx context.Context, input string, hint models.Platform) (*models.VideoItem, error) {
	value := strings.TrimSpace(input)
	for _, v := range d.variants {
		if !v.Matches(value, hint) {
			continue
		}
		slog.Debug("resolving input", "platform", v.Name(), "input", value)
		item, err := v.Parse(ctx, value)
		if err != nil {
			return nil, err
		}
		item.InputValue = input
		return item, nil
	}
	return nil, apperrors.UnsupportedInput(input)
}

// firstURL returns the first http(s) link found in text
func firstURL(text string) string {
	return urlRe.FindString(text)
}
