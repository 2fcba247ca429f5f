package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/yanqian/paper-summarizer/internal/domain/catalog"
	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
	"github.com/yanqian/paper-summarizer/pkg/util"
)

var versionSuffix = regexp.MustCompile(`v\d+$`)

// Config points the client at the arXiv endpoints.
type Config struct {
	PDFURLTemplate string
	AbsURLTemplate string
	SearchURL      string
	UserAgent      string
	FetchTimeout   time.Duration
	IndexTimeout   time.Duration
	MaxPDFBytes    int64
}

// Client downloads papers and queries the arXiv index.
type Client struct {
	cfg         Config
	pdfClient   *http.Client
	indexClient *http.Client
	parser      *gofeed.Parser
}

// NewClient builds an arXiv client. Redirects are followed.
func NewClient(cfg Config) *Client {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	if cfg.IndexTimeout <= 0 {
		cfg.IndexTimeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	return &Client{
		cfg:         cfg,
		pdfClient:   &http.Client{Timeout: cfg.FetchTimeout},
		indexClient: &http.Client{Timeout: cfg.IndexTimeout},
		parser:      gofeed.NewParser(),
	}
}

// FetchPDF downloads the PDF for paperID. Any non-200 answer is reported as
// apperrors.ErrNotFound.
func (c *Client) FetchPDF(ctx context.Context, paperID string) ([]byte, error) {
	pdfURL := expand(c.cfg.PDFURLTemplate, paperID)
	body, err := c.get(ctx, c.pdfClient, pdfURL, "application/pdf")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	limit := c.cfg.MaxPDFBytes
	if limit <= 0 {
		return io.ReadAll(body)
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("pdf exceeds %d bytes", limit)
	}
	return data, nil
}

// Search runs an all-fields query against the Atom API.
func (c *Client) Search(ctx context.Context, query string, start, max int) (catalog.Page, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(max))

	body, err := c.get(ctx, c.indexClient, c.cfg.SearchURL+"?"+params.Encode(), "application/atom+xml")
	if err != nil {
		return catalog.Page{}, err
	}
	defer body.Close()

	feed, err := c.parser.Parse(body)
	if err != nil {
		return catalog.Page{}, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]catalog.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, c.entryFromItem(item))
	}
	return catalog.Page{Entries: entries, Total: totalResults(feed, len(entries))}, nil
}

// Lookup reads the citation meta tags of the abstract page.
func (c *Client) Lookup(ctx context.Context, paperID string) (catalog.Entry, error) {
	absURL := expand(c.cfg.AbsURLTemplate, paperID)
	body, err := c.get(ctx, c.indexClient, absURL, "text/html")
	if err != nil {
		return catalog.Entry{}, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("parse document: %w", err)
	}
	return c.entryFromDocument(doc, paperID, absURL)
}

func (c *Client) get(ctx context.Context, client *http.Client, target, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("arxiv returned %s: %w", resp.Status, apperrors.ErrNotFound)
	}
	return resp.Body, nil
}

func (c *Client) entryFromItem(item *gofeed.Item) catalog.Entry {
	id := idFromURL(item.GUID)
	if id == "" {
		id = idFromURL(item.Link)
	}
	entry := catalog.Entry{
		ID:         id,
		Title:      util.NormalizeWhitespace(item.Title),
		Summary:    util.NormalizeWhitespace(item.Description),
		Authors:    make([]string, 0, len(item.Authors)),
		Published:  item.PublishedParsed,
		Updated:    item.UpdatedParsed,
		AbsURL:     expand(c.cfg.AbsURLTemplate, id),
		Categories: item.Categories,
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			entry.Authors = append(entry.Authors, author.Name)
		}
	}
	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			entry.PDFURL = link
			break
		}
	}
	if entry.PDFURL == "" {
		entry.PDFURL = expand(c.cfg.PDFURLTemplate, id)
	}
	return entry
}

func (c *Client) entryFromDocument(doc *goquery.Document, paperID, absURL string) (catalog.Entry, error) {
	meta := func(name string) string {
		return strings.TrimSpace(doc.Find(`meta[name="` + name + `"]`).First().AttrOr("content", ""))
	}
	title := meta("citation_title")
	if title == "" {
		return catalog.Entry{}, errors.New("abstract page has no citation_title")
	}

	entry := catalog.Entry{
		ID:      paperID,
		Title:   util.NormalizeWhitespace(title),
		Summary: util.NormalizeWhitespace(meta("citation_abstract")),
		Authors: []string{},
		PDFURL:  meta("citation_pdf_url"),
		AbsURL:  absURL,
	}
	if id := meta("citation_arxiv_id"); id != "" {
		entry.ID = id
	}
	doc.Find(`meta[name="citation_author"]`).Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.AttrOr("content", "")); name != "" {
			entry.Authors = append(entry.Authors, name)
		}
	})
	if published, ok := parseCitationDate(meta("citation_date")); ok {
		entry.Published = &published
	}
	if updated, ok := parseCitationDate(meta("citation_online_date")); ok {
		entry.Updated = &updated
	}
	if subject := strings.TrimSpace(doc.Find(".primary-subject").First().Text()); subject != "" {
		entry.Categories = []string{subject}
	}
	if entry.PDFURL == "" {
		entry.PDFURL = expand(c.cfg.PDFURLTemplate, entry.ID)
	}
	return entry, nil
}

func parseCitationDate(raw string) (time.Time, bool) {
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// totalResults reads opensearch:totalResults, falling back to the page size.
func totalResults(feed *gofeed.Feed, fallback int) int {
	for _, elements := range feed.Extensions {
		values := elements["totalResults"]
		if len(values) == 0 {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(values[0].Value)); err == nil {
			return n
		}
	}
	return fallback
}

// idFromURL extracts "1706.03762" from "http://arxiv.org/abs/1706.03762v5".
func idFromURL(raw string) string {
	idx := strings.Index(raw, "/abs/")
	if idx < 0 {
		return ""
	}
	return versionSuffix.ReplaceAllString(raw[idx+len("/abs/"):], "")
}

// expand fills {id} in template, escaping each path segment.
func expand(template, id string) string {
	segments := strings.Split(id, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.ReplaceAll(template, "{id}", strings.Join(segments, "/"))
}

var _ catalog.Index = (*Client)(nil)
