package fetcher

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Geometry is a point geometry as returned by a feature layer query. Coordinates
// keep the literal number text of the response so they render unchanged.
type Geometry struct {
	X json.Number `json:"x"`
	Y json.Number `json:"y"`
}

// Record is one feature of a layer.
type Record struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *Geometry      `json:"geometry"`
}

// Value returns the attribute named field formatted for display.
// ok is false when the record has no such attribute.
func (r Record) Value(field string) (string, bool) {
	v, ok := r.Attributes[field]
	if !ok {
		return "", false
	}
	return FormatValue(v), true
}

// FormatValue renders a decoded attribute value as text. Nulls become the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Layer is everything fetched for one error report feature layer.
type Layer struct {
	ItemID        string
	ServiceItemID string
	LastEdit      time.Time
	Fields        []string
	Records       []Record
}

// Item is the subset of a portal item description the fetcher needs.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

type serviceInfo struct {
	Layers []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"layers"`
}

// LayerInfo is the metadata of a feature layer.
type LayerInfo struct {
	Name           string `json:"name"`
	ServiceItemID  string `json:"serviceItemId"`
	MaxRecordCount int    `json:"maxRecordCount"`
	EditingInfo    *struct {
		LastEditDate *int64 `json:"lastEditDate"`
	} `json:"editingInfo"`
}

type queryResponse struct {
	Fields []struct {
		Name string `json:"name"`
	} `json:"fields"`
	Features              []Record `json:"features"`
	ExceededTransferLimit bool     `json:"exceededTransferLimit"`
}

// fieldNames returns the field order of a query response. Servers that omit the
// fields array fall back to the first record's attribute names, sorted.
func (q queryResponse) fieldNames() []string {
	if len(q.Fields) > 0 {
		names := make([]string, 0, len(q.Fields))
		for _, f := range q.Fields {
			names = append(names, f.Name)
		}
		return names
	}
	if len(q.Features) == 0 {
		return nil
	}
	names := make([]string, 0, len(q.Features[0].Attributes))
	for name := range q.Features[0].Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// APIError is the error envelope ArcGIS REST endpoints return, usually with HTTP 200.
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}
