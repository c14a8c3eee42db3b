// Package report turns fetched feature layers into error reports: the per-status
// tally and the metadata the dashboard shows for each layer.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/vdot-gis/error-reports-dashboard/internal/fetcher"
)

// CommentField is shown as the popup text of a record on the map.
const CommentField = "ErrorComment"

// SystemFields are maintained by ArcGIS and left out of the record table.
var SystemFields = []string{"OBJECTID", "GlobalID", "CreationDate", "Creator", "EditDate", "Editor"}

// Source names a feature layer item and the web map used to view it.
type Source struct {
	Name   string `yaml:"name"`
	ItemID string `yaml:"item_id"`
	MapID  string `yaml:"map_id"`
}

// Report is one error report ready to render.
type Report struct {
	Source
	ServiceItemID string
	ItemURL       string
	LastEdit      time.Time
	Fields        []string
	Records       []fetcher.Record
	Tally         Tally
}

// New builds the report for src from its fetched layer. portalURL is the base
// of the "view in ArcGIS Online" link.
func New(src Source, layer *fetcher.Layer, portalURL string) (*Report, error) {
	tally, err := CountStatuses(layer.Records, StatusField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	for i, rec := range layer.Records {
		if rec.Geometry == nil {
			return nil, fmt.Errorf("%s: record %d: %w %q", src.Name, i, ErrMissingField, "geometry")
		}
	}

	return &Report{
		Source:        src,
		ServiceItemID: layer.ServiceItemID,
		ItemURL:       ItemURL(portalURL, layer.ServiceItemID),
		LastEdit:      layer.LastEdit,
		Fields:        layer.Fields,
		Records:       layer.Records,
		Tally:         tally,
	}, nil
}

// ItemURL is the portal page of an item.
func ItemURL(portalURL, itemID string) string {
	return strings.TrimRight(portalURL, "/") + "/home/item.html?id=" + itemID
}

// ElementID is the HTML id of the report's modal. HTML ids cannot start with a
// digit, so the service item id gets a prefix.
func (r *Report) ElementID() string {
	return "id" + r.ServiceItemID
}

// DisplayFields is Fields without the system fields, in the same order.
func (r *Report) DisplayFields() []string {
	fields := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		if !isSystemField(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func isSystemField(name string) bool {
	for _, s := range SystemFields {
		if s == name {
			return true
		}
	}
	return false
}
