package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/killallgit/delivery-api/internal/models"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

const (
	defaultDouyinShareBase = "https://www.iesdouyin.com"
	routerDataMarker       = "window._ROUTER_DATA"
)

// Douyin resolves share links by reading the router data embedded in the
// mobile share page
type Douyin struct {
	client    *http.Client
	shareBase string
	userAgent string
}

// NewDouyin creates the Douyin variant
func NewDouyin(client *http.Client, shareBase, userAgent string) *Douyin {
	if shareBase == "" {
		shareBase = defaultDouyinShareBase
	}
	return &Douyin{
		client:    client,
		shareBase: strings.TrimRight(shareBase, "/"),
		userAgent: userAgent,
	}
}

type douyinRouterData struct {
	LoaderData map[string]struct {
		VideoInfoRes struct {
			ItemList []douyinItem `json:"item_list"`
		} `json:"videoInfoRes"`
	} `json:"loaderData"`
}

type douyinItem struct {
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	Duration   int64  `json:"duration"`
	Video      struct {
		Duration int64 `json:"duration"`
		PlayAddr struct {
			URLList []string `json:"url_list"`
		} `json:"play_addr"`
	} `json:"video"`
}

func (d *Douyin) Name() models.Platform { return models.PlatformDouyin }

// Matches accepts douyin links, a douyin hint, and any other text carrying a
// link when no hint was given
func (d *Douyin) Matches(value string, hint models.Platform) bool {
	if hint == models.PlatformDouyin {
		return true
	}
	if strings.Contains(value, "douyin.com") {
		return true
	}
	return (hint == "" || hint == models.PlatformAuto) && firstURL(value) != ""
}

func (d *Douyin) Parse(ctx context.Context, value string) (*models.VideoItem, error) {
	shareURL := firstURL(value)
	if shareURL == "" {
		return nil, apperrors.ResolutionError("douyin", "no share link in input", nil)
	}

	finalURL, err := d.finalURL(ctx, shareURL)
	if err != nil {
		return nil, apperrors.ResolutionError("douyin", "failed to open share link", err)
	}
	videoID := lastPathSegment(finalURL)
	if videoID == "" {
		return nil, apperrors.ResolutionError("douyin", "no video id in share link", nil)
	}

	page, err := d.sharePage(ctx, videoID)
	if err != nil {
		return nil, apperrors.ResolutionError("douyin", "share page fetch failed", err)
	}
	defer page.Body.Close()

	data, err := parseRouterData(page)
	if err != nil {
		return nil, apperrors.ResolutionError("douyin", "failed to parse video info", err)
	}

	info, ok := data.LoaderData["video_(id)/page"]
	if !ok {
		info, ok = data.LoaderData["note_(id)/page"]
	}
	if !ok || len(info.VideoInfoRes.ItemList) == 0 {
		return nil, apperrors.ResolutionError("douyin", "video info not found", nil)
	}
	entry := info.VideoInfoRes.ItemList[0]

	if len(entry.Video.PlayAddr.URLList) == 0 || entry.Video.PlayAddr.URLList[0] == "" {
		return nil, apperrors.ResolutionError("douyin", "no play address", nil)
	}
	playURL := strings.Replace(entry.Video.PlayAddr.URLList[0], "playwm", "play", 1)

	title := strings.TrimSpace(entry.Desc)
	if title == "" {
		title = "douyin_" + videoID
	}

	item := &models.VideoItem{
		InputValue:      value,
		Title:           textproc.SanitizeFilename(title),
		SourceURL:       playURL,
		VideoID:         videoID,
		Platform:        models.PlatformDouyin,
		DownloadHeaders: map[string]string{"User-Agent": d.userAgent},
	}
	if entry.CreateTime > 0 {
		t := time.Unix(entry.CreateTime, 0)
		item.PublishedAt = &t
	}
	item.DurationMS = entry.Video.Duration
	if item.DurationMS == 0 {
		item.DurationMS = entry.Duration
	}
	return item, nil
}

func (d *Douyin) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}
	return resp, nil
}

func (d *Douyin) finalURL(ctx context.Context, shareURL string) (string, error) {
	resp, err := d.get(ctx, shareURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Request.URL.String(), nil
}

func (d *Douyin) sharePage(ctx context.Context, videoID string) (*http.Response, error) {
	return d.get(ctx, fmt.Sprintf("%s/share/video/%s", d.shareBase, videoID))
}

// parseRouterData finds the script assigning window._ROUTER_DATA and decodes
// the object literal it assigns
func parseRouterData(resp *http.Response) (*douyinRouterData, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, routerDataMarker)
		if idx < 0 {
			return true
		}
		rest := text[idx+len(routerDataMarker):]
		if eq := strings.Index(rest, "="); eq >= 0 {
			payload = strings.TrimSpace(rest[eq+1:])
			payload = strings.TrimSpace(strings.TrimSuffix(payload, ";"))
		}
		return false
	})
	if payload == "" {
		return nil, fmt.Errorf("router data script not found")
	}

	var data douyinRouterData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("decoding router data: %w", err)
	}
	return &data, nil
}

// lastPathSegment returns the final non-empty segment of a URL path, ignoring
// the query string
func lastPathSegment(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	parts := strings.Split(strings.Trim(raw, "/"), "/")
	return parts[len(parts)-1]
}
