package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	userAgent       = "error-reports-dashboard/1.0"
	defaultPageSize = 2000
	maxQueryPages   = 1000
)

// Client talks to an ArcGIS Online portal and the feature services it hosts.
type Client struct {
	PortalURL  string
	Token      string
	PageSize   int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient returns a client for the portal at portalURL. token may be empty
// for publicly shared layers.
func NewClient(portalURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		PortalURL:  strings.TrimRight(portalURL, "/"),
		Token:      token,
		PageSize:   defaultPageSize,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

// FetchLayer retrieves the first layer of the feature service behind itemID:
// its service item id, last edit time and every record.
func (c *Client) FetchLayer(ctx context.Context, itemID string) (*Layer, error) {
	item, err := c.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.URL == "" {
		return nil, fmt.Errorf("item %s has no service url (type %q)", itemID, item.Type)
	}

	layerID, err := c.GetService(ctx, item.URL)
	if err != nil {
		return nil, err
	}

	info, err := c.GetLayerInfo(ctx, item.URL, layerID)
	if err != nil {
		return nil, err
	}
	if info.ServiceItemID == "" {
		return nil, fmt.Errorf("layer %s/%d: missing serviceItemId", item.URL, layerID)
	}
	if info.EditingInfo == nil || info.EditingInfo.LastEditDate == nil {
		return nil, fmt.Errorf("layer %s/%d: missing editingInfo.lastEditDate", item.URL, layerID)
	}

	pageSize := c.PageSize
	if info.MaxRecordCount > 0 && (pageSize <= 0 || info.MaxRecordCount < pageSize) {
		pageSize = info.MaxRecordCount
	}

	fields, records, err := c.query(ctx, item.URL, layerID, pageSize)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug("fetched layer", "item", itemID, "service_item", info.ServiceItemID, "records", len(records))

	return &Layer{
		ItemID:        itemID,
		ServiceItemID: info.ServiceItemID,
		LastEdit:      time.UnixMilli(*info.EditingInfo.LastEditDate).UTC(),
		Fields:        fields,
		Records:       records,
	}, nil
}

// GetItem looks up a portal item by id.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	endpoint := c.PortalURL + "/sharing/rest/content/items/" + url.PathEscape(itemID)
	if err := c.getJSON(ctx, endpoint, nil, &item); err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}
	return &item, nil
}

// GetService returns the id of the first layer published by the feature service at serviceURL.
func (c *Client) GetService(ctx context.Context, serviceURL string) (int, error) {
	var svc serviceInfo
	if err := c.getJSON(ctx, serviceURL, nil, &svc); err != nil {
		return 0, fmt.Errorf("failed to describe service %s: %w", serviceURL, err)
	}
	if len(svc.Layers) == 0 {
		return 0, fmt.Errorf("service %s has no layers", serviceURL)
	}
	return svc.Layers[0].ID, nil
}

// GetLayerInfo returns the layer's metadata.
func (c *Client) GetLayerInfo(ctx context.Context, serviceURL string, layerID int) (*LayerInfo, error) {
	var info LayerInfo
	if err := c.getJSON(ctx, layerURL(serviceURL, layerID), nil, &info); err != nil {
		return nil, fmt.Errorf("failed to describe layer %s/%d: %w", serviceURL, layerID, err)
	}
	return &info, nil
}

// Query returns every record of a layer together with the field order of the response.
// Pages are requested until the server stops reporting exceededTransferLimit.
func (c *Client) Query(ctx context.Context, serviceURL string, layerID int) ([]string, []Record, error) {
	return c.query(ctx, serviceURL, layerID, c.PageSize)
}

// query pages through a layer pageSize records at a time. A server that ignores
// resultOffset, or keeps paging past maxQueryPages, is an error.
func (c *Client) query(ctx context.Context, serviceURL string, layerID, pageSize int) ([]string, []Record, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var fields []string
	records := []Record{}
	offset := 0
	var prevFirst *Record

	for pages := 1; ; pages++ {
		if pages > maxQueryPages {
			return nil, nil, fmt.Errorf("query layer %s/%d: more than %d pages", serviceURL, layerID, maxQueryPages)
		}

		params := url.Values{}
		params.Set("where", "1=1")
		params.Set("outFields", "*")
		params.Set("returnGeometry", "true")
		params.Set("resultOffset", strconv.Itoa(offset))
		params.Set("resultRecordCount", strconv.Itoa(pageSize))

		var page queryResponse
		if err := c.getJSON(ctx, layerURL(serviceURL, layerID)+"/query", params, &page); err != nil {
			return nil, nil, fmt.Errorf("failed to query layer %s/%d: %w", serviceURL, layerID, err)
		}

		if len(page.Features) > 0 {
			first := page.Features[0]
			if prevFirst != nil && reflect.DeepEqual(*prevFirst, first) {
				return nil, nil, fmt.Errorf("query layer %s/%d: server ignored resultOffset %d", serviceURL, layerID, offset)
			}
			prevFirst = &first
		}

		if fields == nil {
			fields = page.fieldNames()
		}
		records = append(records, page.Features...)
		offset += len(page.Features)

		if !page.ExceededTransferLimit || len(page.Features) == 0 {
			break
		}
		c.Logger.Debug("query page exceeded transfer limit", "layer", layerID, "offset", offset)
	}

	return fields, records, nil
}

func layerURL(serviceURL string, layerID int) string {
	return strings.TrimRight(serviceURL, "/") + "/" + strconv.Itoa(layerID)
}

// getJSON performs a GET with f=json (and the token, if any) and decodes the
// response into v. Numbers are kept as json.Number.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("f", "json")
	if c.Token != "" {
		params.Set("token", c.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read body failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snip := body
		if len(snip) > 200 {
			snip = snip[:200]
		}
		return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, string(snip))
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("JSON decode failed: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("JSON decode failed: %w", err)
	}
	return nil
}
