// Package google implements sheets.Spreadsheet on the Google Sheets v4 API.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spesevoce/internal/auth"
	"spesevoce/internal/cache"
	"spesevoce/internal/log"
	ports "spesevoce/internal/sheets"
)

// Sheet ids rarely change; a stale entry is dropped on the next listing.
const sheetIDTTL = 30 * time.Minute

type Client struct {
	svc      *gsheet.Service
	creds    auth.Provider
	sheetIDs *cache.LRUCache[int64]
	logger   *log.Logger
}

// Ensure interface conformance
var _ ports.Spreadsheet = (*Client)(nil)

type Options struct {
	Logger *log.Logger
	// Cache, when set, periodically drops expired sheet ids.
	Cache *cache.Manager
}

// New creates a client whose requests carry tokens from creds. Extra client
// options are appended, which lets tests point it at a local endpoint.
func New(ctx context.Context, creds auth.Provider, opts Options, extra ...goption.ClientOption) (*Client, error) {
	if creds == nil {
		creds = auth.None()
	}
	hctx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	httpClient := oauth2.NewClient(hctx, auth.TokenSource(ctx, creds))

	svc, err := gsheet.NewService(ctx, append([]goption.ClientOption{goption.WithHTTPClient(httpClient)}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, creds, opts), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, creds auth.Provider, opts Options) *Client {
	if creds == nil {
		creds = auth.None()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	c := &Client{
		svc:      svc,
		creds:    creds,
		sheetIDs: cache.NewLRUCache[int64](512, sheetIDTTL),
		logger:   logger.WithComponent(log.ComponentSheets),
	}
	if opts.Cache != nil {
		opts.Cache.Register(c.sheetIDs)
	}
	return c
}

// newHTTPClientWithPooling creates an HTTP client optimized for Google Sheets API
// with connection pooling, proper timeouts, and keep-alive settings
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ready fails fast, before any request is built, when there is no token.
func (c *Client) ready(ctx context.Context) error {
	if _, err := c.creds.Token(ctx); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrMissingCredential, err)
	}
	return nil
}

func (c *Client) CreateSpreadsheet(ctx context.Context, title, firstSheet string) (string, error) {
	if err := c.ready(ctx); err != nil {
		return "", err
	}
	ss := &gsheet.Spreadsheet{Properties: &gsheet.SpreadsheetProperties{Title: title}}
	if firstSheet != "" {
		ss.Sheets = []*gsheet.Sheet{{Properties: &gsheet.SheetProperties{Title: firstSheet}}}
	}
	resp, err := c.svc.Spreadsheets.Create(ss).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet: %w", mapError(err))
	}
	c.remember(resp.SpreadsheetId, resp.Sheets)
	return resp.SpreadsheetId, nil
}

func (c *Client) Sheets(ctx context.Context, id string) ([]ports.SheetInfo, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Get(id).Fields(googleapi.Field("spreadsheetId,sheets.properties")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", id, mapError(err))
	}
	c.sheetIDs.DeletePrefix(cacheKey(id, ""))
	c.remember(id, resp.Sheets)
	out := make([]ports.SheetInfo, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			out = append(out, toSheetInfo(s.Properties))
		}
	}
	return out, nil
}

func (c *Client) AddSheet(ctx context.Context, id, title string, rows, cols int) (ports.SheetInfo, error) {
	if err := c.ready(ctx); err != nil {
		return ports.SheetInfo{}, err
	}
	props := &gsheet.SheetProperties{Title: title}
	if rows > 0 && cols > 0 {
		props.GridProperties = &gsheet.GridProperties{RowCount: int64(rows), ColumnCount: int64(cols)}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{AddSheet: &gsheet.AddSheetRequest{Properties: props}}},
	}
	resp, err := c.svc.Spreadsheets.BatchUpdate(id, req).Context(ctx).Do()
	if err != nil {
		return ports.SheetInfo{}, fmt.Errorf("add sheet %q: %w", title, mapError(err))
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return ports.SheetInfo{}, fmt.Errorf("add sheet %q: empty reply", title)
	}
	p := resp.Replies[0].AddSheet.Properties
	c.sheetIDs.Set(cacheKey(id, p.Title), p.SheetId)
	return toSheetInfo(p), nil
}

func (c *Client) UpdateCells(ctx context.Context, id, sheet string, updates []ports.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := c.ready(ctx); err != nil {
		return err
	}
	sheetID, err := c.sheetID(ctx, id, sheet)
	if err != nil {
		return err
	}
	reqs := make([]*gsheet.Request, 0, len(updates))
	for _, u := range updates {
		if r := toUpdateCellsRequest(sheetID, u); r != nil {
			reqs = append(reqs, &gsheet.Request{UpdateCells: r})
		}
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(id, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		c.sheetIDs.Delete(cacheKey(id, sheet))
		return fmt.Errorf("update cells of %q: %w", sheet, mapError(err))
	}
	return nil
}

// AppendRow writes values as RAW so dates and times stay text.
func (c *Client) AppendRow(ctx context.Context, id, sheet string, values []any) (int, error) {
	if err := c.ready(ctx); err != nil {
		return 0, err
	}
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	resp, err := c.svc.Spreadsheets.Values.Append(id, ports.A1(sheet, "A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to %q: %w", sheet, mapError(err))
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append to %q: no update range in reply", sheet)
	}
	return parseUpdatedRow(resp.Updates.UpdatedRange)
}

func (c *Client) ReadRange(ctx context.Context, id, a1 string) ([][]any, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(id, a1).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a1, mapError(err))
	}
	return resp.Values, nil
}

// WriteRange writes USER_ENTERED so formulas are evaluated.
func (c *Client) WriteRange(ctx context.Context, id, a1 string, values [][]any) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	_, err := c.svc.Spreadsheets.Values.Update(id, a1, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", a1, mapError(err))
	}
	return nil
}

func (c *Client) ClearRange(ctx context.Context, id, a1 string) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(id, a1, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", a1, mapError(err))
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, id, sheet string) (int64, error) {
	if v, ok := c.sheetIDs.Get(cacheKey(id, sheet)); ok {
		return v, nil
	}
	infos, err := c.Sheets(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, s := range infos {
		if s.Title == sheet {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in %s", sheet, id)
}

func (c *Client) remember(id string, sheets []*gsheet.Sheet) {
	for _, s := range sheets {
		if s.Properties != nil {
			c.sheetIDs.Set(cacheKey(id, s.Properties.Title), s.Properties.SheetId)
		}
	}
}

func cacheKey(id, title string) string {
	return id + "\x00" + title
}

// mapError turns API failures the sync layer reacts to into port errors.
func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", ports.ErrContainerNotFound, err)
		case gerr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(gerr.Message), "already exists"):
			return fmt.Errorf("%w: %v", ports.ErrContainerExists, err)
		case gerr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ports.ErrMissingCredential, err)
		}
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", ports.ErrMissingCredential, err)
	}
	return err
}
