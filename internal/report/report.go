// Package report renders daily disclosure reports and sync summaries.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/yuutai-cli/internal/model"
)

// Format is an output format for a daily report.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatYAML, FormatXLSX}
}

// ParseFormat validates s. An empty string selects text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	for _, v := range Formats() {
		if f == v {
			return f, nil
		}
	}
	return "", eris.Errorf("report: unknown format %q", s)
}

// Write renders r to w in format f.
func Write(w io.Writer, r model.DailyReport, f Format) error {
	switch f {
	case FormatText, "":
		return writeText(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return eris.Wrap(err, "report: write markdown")
	case FormatHTML:
		return writeHTML(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return eris.Wrap(enc.Encode(r), "report: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "report: encode yaml")
		}
		return eris.Wrap(enc.Close(), "report: close yaml")
	case FormatXLSX:
		return writeXLSX(w, r)
	default:
		return eris.Errorf("report: unknown format %q", f)
	}
}

func writeText(out io.Writer, r model.DailyReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Date:\t%s\n", r.Date)
	_, _ = fmt.Fprintf(w, "Total disclosures:\t%d\n", r.TotalDisclosures)
	for _, c := range r.Categories {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", c.Category, c.Count)
	}
	_, _ = fmt.Fprintln(w)
	if len(r.Companies) > 0 {
		_, _ = fmt.Fprintln(w, "CODE\tNAME\tCATEGORY\tTITLE")
		_, _ = fmt.Fprintln(w, "----\t----\t--------\t-----")
		for _, e := range r.Companies {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Code, e.Name, e.Category, e.Title)
		}
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintln(w, r.Summary)
	return eris.Wrap(w.Flush(), "report: write text")
}

// Markdown renders r as a Markdown document.
func Markdown(r model.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 株主優待開示レポート %s\n\n", r.Date)
	fmt.Fprintf(&b, "%s\n\n", r.Summary)

	if len(r.Categories) > 0 {
		b.WriteString("## カテゴリ別\n\n| カテゴリ | 件数 |\n| --- | ---: |\n")
		for _, c := range r.Categories {
			fmt.Fprintf(&b, "| %s | %d |\n", mdCell(string(c.Category)), c.Count)
		}
		b.WriteString("\n")
	}

	if len(r.Companies) > 0 {
		b.WriteString("## 開示一覧\n\n| 銘柄コード | 銘柄名 | カテゴリ | タイトル |\n| --- | --- | --- | --- |\n")
		for _, e := range r.Companies {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				mdCell(e.Code), mdCell(e.Name), mdCell(string(e.Category)), mdCell(e.Title))
		}
	}
	return b.String()
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func writeHTML(w io.Writer, r model.DailyReport) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &buf); err != nil {
		return eris.Wrap(err, "report: render html")
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"ja\">\n<head><meta charset=\"utf-8\"><title>株主優待開示レポート %s</title></head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(r.Date), buf.String())
	return eris.Wrap(err, "report: write html")
}

func writeXLSX(w io.Writer, r model.DailyReport) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("開示一覧")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"銘柄コード", "銘柄名", "カテゴリ", "タイトル"} {
		header.AddCell().SetString(h)
	}
	for _, e := range r.Companies {
		row := sheet.AddRow()
		row.AddCell().SetString(e.Code)
		row.AddCell().SetString(e.Name)
		row.AddCell().SetString(string(e.Category))
		row.AddCell().SetString(e.Title)
	}

	cats, err := f.AddSheet("カテゴリ別")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	header = cats.AddRow()
	header.AddCell().SetString("カテゴリ")
	header.AddCell().SetString("件数")
	for _, c := range r.Categories {
		row := cats.AddRow()
		row.AddCell().SetString(string(c.Category))
		row.AddCell().SetInt(c.Count)
	}

	return eris.Wrap(f.Write(w), "xlsx: write")
}

// WriteRange renders a date-range summary as text.
func WriteRange(out io.Writer, s model.RangeSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Dates:\t%d\n", s.TotalDates)
	_, _ = fmt.Fprintf(w, "Successful dates:\t%d\n", s.SuccessfulDates)
	_, _ = fmt.Fprintf(w, "Failed dates:\t%d\n", s.FailedDates)
	_, _ = fmt.Fprintf(w, "Disclosures:\t%d\n", s.TotalDisclosures)
	_, _ = fmt.Fprintf(w, "Uploaded:\t%d\n", s.SuccessfulUploads)
	_, _ = fmt.Fprintf(w, "Failed uploads:\t%d\n", s.FailedUploads)
	for _, e := range s.Errors {
		_, _ = fmt.Fprintf(w, "  %s:\t%s\n", e.Date, e.Error)
	}
	return eris.Wrap(w.Flush(), "report: write range")
}

// WriteStats renders one batch's counts as text.
func WriteStats(out io.Writer, label string, s model.BatchStats) error {
	_, err := fmt.Fprintf(out, "%s: total=%d success=%d failed=%d skipped=%d duplicates=%d\n",
		label, s.Total, s.Success, s.Failed, s.Skipped, s.Duplicates)
	return eris.Wrap(err, "report: write stats")
}

// WriteDisclosures renders a disclosure list as a table.
func WriteDisclosures(out io.Writer, ds []model.Disclosure) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tNAME\tTIME\tCATEGORY\tTITLE")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t--------\t-----")
	for _, d := range ds {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.CompanyCode, d.CompanyName, d.DisclosureTime, d.Category, d.Title)
	}
	return eris.Wrap(w.Flush(), "report: write disclosures")
}
