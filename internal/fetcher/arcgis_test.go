package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePortal serves a single hosted feature service with one layer.
type fakePortal struct {
	*httptest.Server
	lastEdit       string
	serviceItemID  string
	maxRecordCount int
	layerBody      string // replaces the layer description when set
	features       []string
	ignoreOffset   bool
	failQuery      int // query number answered with HTTP 500, 0 for none
	tokenSeen      []string
	recordCounts   []string
	queries        int
}

func newFakePortal(t *testing.T, features []string) *fakePortal {
	t.Helper()
	p := &fakePortal{lastEdit: "1700000000000", serviceItemID: "abc123", maxRecordCount: 2000, features: features}
	mux := http.NewServeMux()

	mux.HandleFunc("/sharing/rest/content/items/item1", func(w http.ResponseWriter, r *http.Request) {
		p.tokenSeen = append(p.tokenSeen, r.URL.Query().Get("token"))
		fmt.Fprintf(w, `{"id":"item1","type":"Feature Service","url":%q}`, p.URL+"/FeatureServer")
	})
	mux.HandleFunc("/FeatureServer", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"layers":[{"id":0,"name":"Errors"}]}`)
	})
	mux.HandleFunc("/FeatureServer/0", func(w http.ResponseWriter, r *http.Request) {
		if p.layerBody != "" {
			fmt.Fprint(w, p.layerBody)
			return
		}
		editing := ""
		if p.lastEdit != "" {
			editing = fmt.Sprintf(`,"editingInfo":{"lastEditDate":%s}`, p.lastEdit)
		}
		fmt.Fprintf(w, `{"name":"Errors","serviceItemId":%q,"maxRecordCount":%d%s}`, p.serviceItemID, p.maxRecordCount, editing)
	})
	mux.HandleFunc("/FeatureServer/0/query", func(w http.ResponseWriter, r *http.Request) {
		p.queries++
		if p.queries == p.failQuery {
			http.Error(w, "service unavailable", http.StatusInternalServerError)
			return
		}
		q := r.URL.Query()
		assert.Equal(t, "1=1", q.Get("where"))
		assert.Equal(t, "*", q.Get("outFields"))
		assert.Equal(t, "json", q.Get("f"))
		p.recordCounts = append(p.recordCounts, q.Get("resultRecordCount"))

		if p.ignoreOffset {
			fmt.Fprintf(w, `{"features":[%s],"exceededTransferLimit":true}`, p.features[0])
			return
		}

		offset, _ := strconv.Atoi(q.Get("resultOffset"))
		count, _ := strconv.Atoi(q.Get("resultRecordCount"))
		end := offset + count
		exceeded := end < len(p.features)
		if end > len(p.features) {
			end = len(p.features)
		}
		page := p.features[offset:end]

		feats, _ := json.Marshal(rawJSON(page))
		fmt.Fprintf(w, `{"fields":[{"name":"OBJECTID"},{"name":"Status"},{"name":"ErrorComment"}],"features":%s,"exceededTransferLimit":%t}`, feats, exceeded)
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

type rawJSON []string

func (r rawJSON) MarshalJSON() ([]byte, error) {
	out := []byte("[")
	for i, s := range r {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, s...)
	}
	return append(out, ']'), nil
}

func feature(id int, status string) string {
	return fmt.Sprintf(`{"attributes":{"OBJECTID":%d,"Status":%q,"ErrorComment":null},"geometry":{"x":-8596000.25,"y":4510000.5}}`, id, status)
}

func TestFetchLayer(t *testing.T) {
	p := newFakePortal(t, []string{feature(1, "New Error"), feature(2, "Fix Complete")})
	c := NewClient(p.URL, "", nil)

	layer, err := c.FetchLayer(context.Background(), "item1")
	require.NoError(t, err)

	assert.Equal(t, "item1", layer.ItemID)
	assert.Equal(t, "abc123", layer.ServiceItemID)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), layer.LastEdit)
	if diff := cmp.Diff([]string{"OBJECTID", "Status", "ErrorComment"}, layer.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, layer.Records, 2)

	rec := layer.Records[0]
	v, ok := rec.Value("Status")
	assert.True(t, ok)
	assert.Equal(t, "New Error", v)

	v, ok = rec.Value("OBJECTID")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = rec.Value("ErrorComment")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = rec.Value("Missing")
	assert.False(t, ok)

	require.NotNil(t, rec.Geometry)
	assert.Equal(t, "-8596000.25", rec.Geometry.X.String())
	assert.Equal(t, "4510000.5", rec.Geometry.Y.String())
}

func TestFetchLayerPaging(t *testing.T) {
	var feats []string
	for i := 1; i <= 5; i++ {
		feats = append(feats, feature(i, "New Error"))
	}
	p := newFakePortal(t, feats)
	c := NewClient(p.URL, "", nil)
	c.PageSize = 2

	layer, err := c.FetchLayer(context.Background(), "item1")
	require.NoError(t, err)
	assert.Len(t, layer.Records, 5)
	assert.Equal(t, 3, p.queries)

	last, _ := layer.Records[4].Value("OBJECTID")
	assert.Equal(t, "5", last)
}

func TestFetchLayerPageSizeFromMaxRecordCount(t *testing.T) {
	var feats []string
	for i := 1; i <= 7; i++ {
		feats = append(feats, feature(i, "Fix in Progress"))
	}
	p := newFakePortal(t, feats)
	p.maxRecordCount = 3
	c := NewClient(p.URL, "", nil)

	layer, err := c.FetchLayer(context.Background(), "item1")
	require.NoError(t, err)
	assert.Len(t, layer.Records, 7)
	assert.Equal(t, []string{"3", "3", "3"}, p.recordCounts)
}

func TestFetchLayerServerIgnoresOffset(t *testing.T) {
	p := newFakePortal(t, []string{feature(1, "New Error")})
	p.ignoreOffset = true
	c := NewClient(p.URL, "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.FetchLayer(ctx, "item1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignored resultOffset")
	assert.Equal(t, 2, p.queries)
}

func TestFetchLayerErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(p *fakePortal)
		wantErr string
	}{
		{
			name:    "missing service item id",
			setup:   func(p *fakePortal) { p.serviceItemID = "" },
			wantErr: "missing serviceItemId",
		},
		{
			name:    "malformed layer description",
			setup:   func(p *fakePortal) { p.layerBody = `{"serviceItemId":` },
			wantErr: "JSON decode failed",
		},
		{
			name: "second query page fails",
			setup: func(p *fakePortal) {
				p.maxRecordCount = 1
				p.failQuery = 2
			},
			wantErr: "HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePortal(t, []string{feature(1, "New Error"), feature(2, "New Error")})
			tt.setup(p)
			c := NewClient(p.URL, "", nil)

			_, err := c.FetchLayer(context.Background(), "item1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFetchLayerEmpty(t *testing.T) {
	p := newFakePortal(t, nil)
	c := NewClient(p.URL, "", nil)

	layer, err := c.FetchLayer(context.Background(), "item1")
	require.NoError(t, err)
	assert.NotNil(t, layer.Records)
	assert.Empty(t, layer.Records)
}

func TestFetchLayerMissingLastEdit(t *testing.T) {
	p := newFakePortal(t, nil)
	p.lastEdit = ""
	c := NewClient(p.URL, "", nil)

	_, err := c.FetchLayer(context.Background(), "item1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lastEditDate")
}

func TestFetchLayerSendsToken(t *testing.T) {
	p := newFakePortal(t, nil)
	c := NewClient(p.URL, "secret", nil)

	_, err := c.FetchLayer(context.Background(), "item1")
	require.NoError(t, err)
	assert.Equal(t, []string{"secret"}, p.tokenSeen)
}

func TestGetItemAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":498,"message":"Invalid token.","details":["token expired"]}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", nil)
	_, err := c.GetItem(context.Background(), "item1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 498, apiErr.Code)
	assert.Equal(t, "arcgis error 498: Invalid token. (token expired)", apiErr.Error())
}

func TestGetItemHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.GetItem(context.Background(), "item1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestGetServiceNoLayers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"layers":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.GetService(context.Background(), srv.URL+"/FeatureServer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no layers")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{json.Number("12.50"), "12.50"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestFieldNamesFallback(t *testing.T) {
	q := queryResponse{Features: []Record{{Attributes: map[string]any{"b": 1, "a": 2}}}}
	assert.Equal(t, []string{"a", "b"}, q.fieldNames())
	assert.Nil(t, queryResponse{}.fieldNames())
}
