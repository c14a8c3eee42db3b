package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/vdot-gis/error-reports-dashboard/internal/report"
)

// TimeLayout formats timestamps shown on the dashboard (month/day/year, 24h clock).
const TimeLayout = "01/02/06 15:04:05"

// Fragments are the rendered pieces of one error report.
type Fragments struct {
	Card  string
	Modal string
}

// Render produces the summary card and the record modal of r.
func Render(r *report.Report) (Fragments, error) {
	modal, err := RenderModal(r)
	if err != nil {
		return Fragments{}, err
	}
	return Fragments{Card: RenderCard(r), Modal: modal}, nil
}

// RenderCard fills the summary card: name, status counts, last edit time and links.
func RenderCard(r *report.Report) string {
	return fillCard(cardTemplate, r)
}

func fillCard(tmpl string, r *report.Report) string {
	return strings.NewReplacer(
		phReportName, r.Name,
		phNewCount, strconv.Itoa(r.Tally.New),
		phInProgress, strconv.Itoa(r.Tally.InProgress),
		phFixedCount, strconv.Itoa(r.Tally.Fixed),
		phCannotFix, strconv.Itoa(r.Tally.CannotFix),
		phDate, r.LastEdit.Format(TimeLayout),
		phURL, r.ItemURL,
		phServiceItemID, r.ElementID(),
	).Replace(tmpl)
}

// RenderModal fills the modal that holds the record table of r.
func RenderModal(r *report.Report) (string, error) {
	table, err := RenderTable(r)
	if err != nil {
		return "", err
	}
	return fillModal(modalTemplate, r, table), nil
}

func fillModal(tmpl string, r *report.Report, table string) string {
	return strings.NewReplacer(
		phServiceItemID, r.ElementID(),
		phModalTitle, r.Name,
		phTable, table,
	).Replace(tmpl)
}

// RenderTable lists every record of r. Each row starts with a "View Map" and an
// "Open in AGOL" cell followed by the non-system attributes. Values are inserted
// verbatim, without HTML escaping.
func RenderTable(r *report.Report) (string, error) {
	if len(r.Records) == 0 {
		return noRecordsHTML, nil
	}

	fields := r.DisplayFields()

	var b strings.Builder
	b.WriteString(`<table class="table table-hover">`)

	b.WriteString(`<thead><tr><th scope="col"></th><th scope="col"></th>`)
	for _, f := range fields {
		b.WriteString(`<th scope="col">` + f + `</th>`)
	}
	b.WriteString(`</tr></thead>`)

	b.WriteString(`<tbody>`)
	for i, rec := range r.Records {
		if rec.Geometry == nil {
			return "", fmt.Errorf("%s: record %d: %w %q", r.Name, i, report.ErrMissingField, "geometry")
		}
		comment, ok := rec.Value(report.CommentField)
		if !ok {
			return "", fmt.Errorf("%s: record %d: %w %q", r.Name, i, report.ErrMissingField, report.CommentField)
		}
		lat := rec.Geometry.Y.String()
		lng := rec.Geometry.X.String()

		b.WriteString(`<tr>`)
		b.WriteString(`<td class='viewMap' data-lat='` + lat + `' data-lng='` + lng + `' data-mapID='` + r.MapID +
			`' data-comment='` + comment + `'><div class='df-btn table-btn'>View Map</div></td>`)
		b.WriteString(`<td class='openInAGOL' data-lat='` + lat + `' data-lng='` + lng + `' data-mapID='` + r.MapID +
			`'><div class='df-btn table-btn'>Open in AGOL</div></td>`)
		for _, f := range fields {
			v, ok := rec.Value(f)
			if !ok {
				return "", fmt.Errorf("%s: record %d: %w %q", r.Name, i, report.ErrMissingField, f)
			}
			b.WriteString(`<td>` + v + `</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)

	return b.String(), nil
}

// RenderPage composes the full dashboard from the fragments of every report, in order.
func RenderPage(title string, generatedAt time.Time, frags []Fragments) string {
	return fillPage(pageTemplate, title, generatedAt, frags)
}

func fillPage(tmpl, title string, generatedAt time.Time, frags []Fragments) string {
	var cards, modals strings.Builder
	for _, f := range frags {
		cards.WriteString(f.Card)
		modals.WriteString(f.Modal)
	}
	return strings.NewReplacer(
		phTitle, title,
		phErrorReports, cards.String(),
		phLastUpdate, generatedAt.Format(TimeLayout),
		phModals, modals.String(),
	).Replace(tmpl)
}

// WritePage replaces the file at path with html. The previous file is left
// untouched if the write fails.
func WritePage(path, html string) error {
	if err := atomic.WriteFile(path, strings.NewReader(html)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// tokenPattern matches placeholder tokens such as [TABLE].
var tokenPattern = regexp.MustCompile(`\[[A-Z][A-Z_]*\]`)

// CheckTemplates renders the page, card and modal templates with neutral values
// and fails if any placeholder token is left unfilled.
func CheckTemplates() error {
	return checkTemplates(pageTemplate, cardTemplate, modalTemplate)
}

func checkTemplates(page, card, modal string) error {
	r := &report.Report{
		Source:        report.Source{Name: "report", ItemID: "item", MapID: "map"},
		ServiceItemID: "0",
		ItemURL:       "url",
	}
	table, err := RenderTable(r)
	if err != nil {
		return err
	}
	frag := Fragments{Card: fillCard(card, r), Modal: fillModal(modal, r, table)}
	html := fillPage(page, "title", time.Time{}, []Fragments{frag})
	if left := leftoverPlaceholders(html); len(left) > 0 {
		return fmt.Errorf("unfilled placeholders in templates: %s", strings.Join(left, ", "))
	}
	return nil
}

// leftoverPlaceholders returns the placeholder tokens still present in html.
func leftoverPlaceholders(html string) []string {
	return tokenPattern.FindAllString(html, -1)
}
