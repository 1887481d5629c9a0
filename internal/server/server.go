package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"rssreader/internal/cache"
	"rssreader/internal/read"
	"rssreader/internal/record"
	"rssreader/internal/version"
)

const defaultLimit = 50

type ListItemsParams struct {
	Source *string `json:"source,omitempty"`
	Date   *string `json:"date,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
}

type GetItemParams struct {
	GUID string `json:"guid"`
}

// Handlers answers MCP tool calls from the cache.
type Handlers struct {
	Store  *cache.Store
	Logger *logrus.Logger
}

func Run(ctx context.Context, store *cache.Store, logger *logrus.Logger) error {
	server := mcp.NewServer(&mcp.Implementation{Name: "rss-reader", Version: version.Version}, nil)

	h := &Handlers{Store: store, Logger: logger}
	mcp.AddTool(server, &mcp.Tool{Name: "list_items", Description: "List cached RSS items, optionally filtered by source URL and date (YYYY-MM-DD or YYYYMMDD)"}, h.ListItems)
	mcp.AddTool(server, &mcp.Tool{Name: "get_item", Description: "Get one cached RSS item by guid"}, h.GetItem)

	logger.WithField("db_path", store.Path()).Info("mcp server listening on stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}

// ListItems returns cached items, respecting filtering parameters
func (h *Handlers) ListItems(ctx context.Context, req *mcp.CallToolRequest, p ListItemsParams) (*mcp.CallToolResult, any, error) {
	if resp, ok := h.unavailable(); !ok {
		return nil, resp, nil
	}

	lim := defaultLimit
	if p.Limit != nil && *p.Limit > 0 {
		lim = *p.Limit
	}
	filter := cache.Filter{}
	if p.Source != nil && strings.TrimSpace(*p.Source) != "" {
		filter["source"] = strings.ToLower(strings.TrimSpace(*p.Source))
	}
	if p.Date != nil && strings.TrimSpace(*p.Date) != "" {
		d, err := normalizeDate(*p.Date)
		if err != nil {
			return nil, map[string]any{"ok": false, "message": err.Error()}, nil
		}
		filter["filter_date"] = d
	}

	rows, err := h.Store.Query(ctx, filter, lim)
	if err != nil {
		return nil, h.queryFailed(err), nil
	}
	items := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		items = append(items, serialize(row))
	}
	return nil, map[string]any{"count": len(items), "items": items}, nil
}

// GetItem returns the full cached item with the given guid.
func (h *Handlers) GetItem(ctx context.Context, req *mcp.CallToolRequest, p GetItemParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(p.GUID) == "" {
		return nil, nil, errors.New("guid is required")
	}
	if resp, ok := h.unavailable(); !ok {
		return nil, resp, nil
	}

	rows, err := h.Store.Query(ctx, cache.Filter{"guid": p.GUID}, 1)
	if err != nil {
		return nil, h.queryFailed(err), nil
	}
	if len(rows) == 0 {
		return nil, map[string]any{"ok": false, "message": fmt.Sprintf("no item with guid %s", p.GUID)}, nil
	}
	return nil, map[string]any{"ok": true, "item": record.Normalizer{}.FromRow(rows[0]).Serialize()}, nil
}

func (h *Handlers) unavailable() (map[string]any, bool) {
	if _, err := os.Stat(h.Store.Path()); err != nil {
		return map[string]any{
			"ok":      false,
			"message": fmt.Sprintf("rss-reader cache not found at %s", h.Store.Path()),
			"hint":    "Run 'rss-reader <feed url>' once to create and populate the cache.",
			"db_path": h.Store.Path(),
		}, false
	}
	return nil, true
}

func (h *Handlers) queryFailed(err error) map[string]any {
	h.Logger.WithError(err).Error("cache query failed")
	// Friendly message if schema is missing (e.g., empty DB file)
	if strings.Contains(strings.ToLower(err.Error()), "no such table") {
		return map[string]any{
			"ok":      false,
			"message": "rss-reader cache is present but not initialized (missing tables)",
			"hint":    "Run 'rss-reader init' or fetch a feed once to initialize the schema.",
			"db_path": h.Store.Path(),
		}
	}
	return map[string]any{
		"ok":      false,
		"message": "Query failed while reading from the rss-reader cache",
		"error":   err.Error(),
		"db_path": h.Store.Path(),
	}
}

// serialize trims the html description from list results; description text
// is capped at 400 characters
func serialize(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		if k == "html_description" {
			continue
		}
		out[k] = v
	}
	if d := []rune(out["description"]); len(d) > 400 {
		out["description"] = string(d[:400]) + "..."
	}
	return out
}

func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) == len("2006-01-02") {
		return read.ParseDate(strings.ReplaceAll(s, "-", ""))
	}
	return read.ParseDate(s)
}
