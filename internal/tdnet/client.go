// Package tdnet reads timely-disclosure listings from the YANOSHIN TDnet web
// API and narrows them to shareholder-benefit announcements.
package tdnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/internal/fetcher"
	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/resilience"
)

const (
	// DefaultBaseURL is the YANOSHIN TDnet list endpoint.
	DefaultBaseURL = "https://webapi.yanoshin.jp/webapi/tdnet/list"
	// DefaultMaxFileBytes caps document downloads at 50 MiB.
	DefaultMaxFileBytes = 50 * 1024 * 1024
	// DefaultLimit is the page size requested per day; one page covers a day.
	DefaultLimit = 1000

	dateLayout    = "2006-01-02"
	compactLayout = "20060102"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	DownloadDir  string
	Limit        int
	MaxFileBytes int64
	// DayPause is slept between days of a company history walk.
	DayPause time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Client is the disclosure source adapter.
type Client struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// NewClient creates a Client. Pacing between outbound requests is the
// fetcher's job.
func NewClient(f fetcher.Fetcher, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "./downloads/yuutai"
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{fetcher: f, opts: opts}
}

// listResponse is the feed envelope: {"items":[{"Tdnet":{...}}]}.
type listResponse struct {
	Items []struct {
		Tdnet *item `json:"Tdnet"`
	} `json:"items"`
}

type item struct {
	ID            flexString `json:"id"`
	Title         string     `json:"title"`
	CompanyCode   string     `json:"company_code"`
	CompanyName   string     `json:"company_name"`
	Pubdate       string     `json:"pubdate"`
	DocumentURL   string     `json:"document_url"`
	MarketsString string     `json:"markets_string"`
	URLXBRL       string     `json:"url_xbrl"`
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// Today returns the current date in YYYY-MM-DD form.
func (c *Client) Today() string {
	return c.opts.Now().Format(dateLayout)
}

// FetchDaily lists every disclosure published on date (YYYY-MM-DD; empty
// means today) and returns the benefit-related ones, normalized.
func (c *Client) FetchDaily(ctx context.Context, date string) ([]model.Disclosure, error) {
	if date == "" {
		date = c.Today()
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, eris.Wrapf(err, "tdnet: invalid date %q", date)
	}

	u := fmt.Sprintf("%s/%s.json?%s", strings.TrimRight(c.opts.BaseURL, "/"),
		day.Format(compactLayout), url.Values{"limit": {fmt.Sprint(c.opts.Limit)}}.Encode())

	zap.L().Info("tdnet: fetching disclosures", zap.String("date", date))

	var resp listResponse
	if err := c.fetcher.GetJSON(ctx, u, &resp); err != nil {
		return nil, eris.Wrapf(err, "tdnet: list %s", date)
	}

	var out []model.Disclosure
	for _, it := range resp.Items {
		if it.Tdnet == nil || !IsBenefitRelated(it.Tdnet.Title) {
			continue
		}
		out = append(out, toDisclosure(*it.Tdnet, date))
	}

	zap.L().Info("tdnet: benefit disclosures found",
		zap.String("date", date),
		zap.Int("items", len(resp.Items)),
		zap.Int("matched", len(out)),
	)
	return out, nil
}

func toDisclosure(it item, date string) model.Disclosure {
	code := NormalizeCode(it.CompanyCode)
	if code != it.CompanyCode {
		zap.L().Debug("tdnet: normalized company code",
			zap.String("from", it.CompanyCode),
			zap.String("to", code),
		)
	}
	return model.Disclosure{
		ID:             string(it.ID),
		Title:          it.Title,
		CompanyCode:    code,
		CompanyName:    it.CompanyName,
		DisclosureDate: date,
		DisclosureTime: it.Pubdate,
		DocumentURL:    it.DocumentURL,
		Category:       Categorize(it.Title),
		Markets:        it.MarketsString,
		XBRLURL:        it.URLXBRL,
	}
}

// FetchForCompany walks every calendar day from daysBack days ago through
// today, one day at a time, and returns the benefit disclosures for code.
// A day that fails to load is logged and skipped.
func (c *Client) FetchForCompany(ctx context.Context, code string, daysBack int) ([]model.Disclosure, error) {
	end := c.opts.Now()
	start := end.AddDate(0, 0, -daysBack)

	var out []model.Disclosure
	for day := start; !dateAfter(day, end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrap(err, "tdnet: company history cancelled")
		}

		date := day.Format(dateLayout)
		daily, err := c.FetchDaily(ctx, date)
		if err != nil {
			zap.L().Warn("tdnet: skipping day",
				zap.String("date", date),
				zap.String("class", resilience.Class(err)),
				zap.Error(err),
			)
		}
		for _, d := range daily {
			if d.CompanyCode == code {
				out = append(out, d)
			}
		}

		if err := sleep(ctx, c.opts.DayPause); err != nil {
			return out, eris.Wrap(err, "tdnet: company history cancelled")
		}
	}

	zap.L().Info("tdnet: company history fetched",
		zap.String("code", code),
		zap.Int("days_back", daysBack),
		zap.Int("found", len(out)),
	)
	return out, nil
}

// Search returns the day's benefit disclosures whose titles contain any of
// keywords, case-insensitively.
func (c *Client) Search(ctx context.Context, date string, keywords []string) ([]model.Disclosure, error) {
	daily, err := c.FetchDaily(ctx, date)
	if err != nil {
		return nil, err
	}
	var out []model.Disclosure
	for _, d := range daily {
		if MatchKeywords(d.Title, keywords) {
			out = append(out, d)
		}
	}
	return out, nil
}

// FilePath returns the local path a disclosure's document is stored at:
// {code}_{YYYYMMDD}_{id}{ext}.
func (c *Client) FilePath(d model.Disclosure) string {
	code := orUnknown(d.CompanyCode)
	id := orUnknown(d.ID)
	date := strings.ReplaceAll(d.DisclosureDate, "-", "")
	name := fmt.Sprintf("%s_%s_%s%s", safeName(code), date, safeName(id), documentExt(d.DocumentURL))
	return filepath.Join(c.opts.DownloadDir, name)
}

// Download stores the disclosure's document locally and returns its path.
// An existing file at the target path is reused without a request. Documents
// over the size limit are refused and leave nothing on disk.
func (c *Client) Download(ctx context.Context, d model.Disclosure) (string, error) {
	if d.DocumentURL == "" {
		return "", eris.New("tdnet: no document url")
	}

	p := c.FilePath(d)
	if _, err := os.Stat(p); err == nil {
		zap.L().Info("tdnet: file already exists", zap.String("path", p))
		return p, nil
	}

	if err := os.MkdirAll(c.opts.DownloadDir, 0o755); err != nil {
		return "", eris.Wrap(err, "tdnet: create download dir")
	}

	n, err := c.fetcher.DownloadToFile(ctx, d.DocumentURL, p, c.opts.MaxFileBytes)
	if err != nil {
		return "", eris.Wrapf(err, "tdnet: download %s", d.DocumentURL)
	}

	zap.L().Info("tdnet: downloaded file", zap.String("path", p), zap.Int64("bytes", n))
	return p, nil
}

func documentExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".pdf"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 6 {
		return ".pdf"
	}
	return ext
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}

// dateAfter compares calendar days only.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
