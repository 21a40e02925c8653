package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Client reads the tracking tab identified by its gid.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	gid           int64
	logger        *slog.Logger

	tab string // resolved lazily from gid
}

func NewClient(ctx context.Context, logger *slog.Logger, spreadsheetID string, gid int64, opts ...option.ClientOption) (*Client, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, gid: gid, logger: logger}, nil
}

// ContractTimeline returns "Jan 5 - Mar 1", a single bound, or "" when the
// artist has no column or no dates.
func (c *Client) ContractTimeline(ctx context.Context, artist string) (string, error) {
	tab, err := c.tabName(ctx)
	if err != nil {
		return "", err
	}
	if tab == "" {
		c.logger.WarnContext(ctx, "tracking tab not found", "gid", c.gid)
		return "", nil
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("reading tab %q: %w", tab, err)
	}
	return TimelineFromRows(resp.Values, artist), nil
}

func (c *Client) tabName(ctx context.Context) (string, error) {
	if c.tab != "" {
		return c.tab, nil
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("getting spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == c.gid {
			c.tab = sh.Properties.Title
			break
		}
	}
	return c.tab, nil
}
