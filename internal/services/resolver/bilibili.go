package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

var bvidRe = regexp.MustCompile(`BV[0-9A-Za-z]+`)

const (
	defaultBilibiliAPIBase = "https://api.bilibili.com"
	bilibiliReferer        = "https://www.bilibili.com/"
)

// Bilibili resolves bilibili.com and b23.tv links through the public web API
type Bilibili struct {
	client    *http.Client
	apiBase   string
	userAgent string
}

// NewBilibili creates the Bilibili variant
func NewBilibili(client *http.Client, apiBase, userAgent string) *Bilibili {
	if apiBase == "" {
		apiBase = defaultBilibiliAPIBase
	}
	return &Bilibili{
		client:    client,
		apiBase:   strings.TrimRight(apiBase, "/"),
		userAgent: userAgent,
	}
}

type bilibiliEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type bilibiliView struct {
	Title    string `json:"title"`
	CID      int64  `json:"cid"`
	Pubdate  int64  `json:"pubdate"`
	Duration int64  `json:"duration"` // seconds
}

type bilibiliPlay struct {
	Durl []struct {
		URL string `json:"url"`
	} `json:"durl"`
}

func (b *Bilibili) Name() models.Platform { return models.PlatformBilibili }

func (b *Bilibili) Matches(value string, hint models.Platform) bool {
	if hint == models.PlatformBilibili {
		return true
	}
	return strings.Contains(value, "bilibili.com") || strings.Contains(value, "b23.tv")
}

func (b *Bilibili) headers() map[string]string {
	return map[string]string{
		"User-Agent": b.userAgent,
		"Referer":    bilibiliReferer,
	}
}

func (b *Bilibili) Parse(ctx context.Context, value string) (*models.VideoItem, error) {
	target := value
	if link := firstURL(value); link != "" {
		final, err := b.followRedirects(ctx, link)
		if err != nil {
			return nil, apperrors.ResolutionError("bilibili", "failed to open share link", err)
		}
		target = final
	}

	bvid := bvidRe.FindString(target)
	if bvid == "" {
		return nil, apperrors.ResolutionError("bilibili", "no BV id in input", nil)
	}

	var view bilibiliView
	viewURL := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", b.apiBase, url.QueryEscape(bvid))
	if err := b.getAPI(ctx, viewURL, &view); err != nil {
		return nil, apperrors.ResolutionError("bilibili", "view API failed", err)
	}
	if view.CID == 0 {
		return nil, apperrors.ResolutionError("bilibili", "missing cid in view data", nil)
	}

	var play bilibiliPlay
	playURL := fmt.Sprintf("%s/x/player/playurl?bvid=%s&cid=%d&qn=64&fnval=1", b.apiBase, url.QueryEscape(bvid), view.CID)
	if err := b.getAPI(ctx, playURL, &play); err != nil {
		return nil, apperrors.ResolutionError("bilibili", "play API failed", err)
	}
	if len(play.Durl) == 0 || play.Durl[0].URL == "" {
		return nil, apperrors.ResolutionError("bilibili", "no playable URL", nil)
	}

	title := strings.TrimSpace(view.Title)
	if title == "" {
		title = bvid
	}

	item := &models.VideoItem{
		InputValue:      value,
		Title:           title,
		SourceURL:       play.Durl[0].URL,
		VideoID:         bvid,
		Platform:        models.PlatformBilibili,
		DownloadHeaders: b.headers(),
	}
	if view.Pubdate > 0 {
		t := time.Unix(view.Pubdate, 0)
		item.PublishedAt = &t
	}
	if view.Duration > 0 {
		item.DurationMS = view.Duration * 1000
	}
	return item, nil
}

// followRedirects returns the final URL after the client follows redirects
func (b *Bilibili) followRedirects(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	for k, v := range b.headers() {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("share link returned status %d", resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}

// getAPI fetches a Bilibili API endpoint and decodes its data field into out
func (b *Bilibili) getAPI(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, v := range b.headers() {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var envelope bilibiliEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("api error %d: %s", envelope.Code, envelope.Message)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("empty data")
	}
	return json.Unmarshal(envelope.Data, out)
}
