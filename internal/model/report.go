package model

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryCount is one line of a report's category breakdown.
type CategoryCount struct {
	Category Category `json:"category" yaml:"category"`
	Count    int      `json:"count" yaml:"count"`
}

// ReportEntry is one disclosure listed in a daily report.
type ReportEntry struct {
	Code     string   `json:"code" yaml:"code"`
	Name     string   `json:"name" yaml:"name"`
	Title    string   `json:"title" yaml:"title"`
	Category Category `json:"category" yaml:"category"`
}

// DailyReport summarizes one day's benefit disclosures.
type DailyReport struct {
	Date             string          `json:"date" yaml:"date"`
	TotalDisclosures int             `json:"total_disclosures" yaml:"total_disclosures"`
	Categories       []CategoryCount `json:"categories" yaml:"categories"`
	Companies        []ReportEntry   `json:"companies" yaml:"companies"`
	Summary          string          `json:"summary" yaml:"summary"`
}

// BuildReport aggregates disclosures by category, most frequent first.
func BuildReport(date string, ds []Disclosure) DailyReport {
	r := DailyReport{Date: date, TotalDisclosures: len(ds)}
	if len(ds) == 0 {
		r.Summary = "No yuutai disclosures found"
		return r
	}

	counts := make(map[Category]int)
	for _, d := range ds {
		cat := d.Category
		if cat == "" {
			cat = CategoryOther
		}
		counts[cat]++
		r.Companies = append(r.Companies, ReportEntry{
			Code:     d.CompanyCode,
			Name:     d.CompanyName,
			Title:    d.Title,
			Category: cat,
		})
	}

	for _, c := range AllCategories() {
		if n := counts[c]; n > 0 {
			r.Categories = append(r.Categories, CategoryCount{Category: c, Count: n})
		}
	}
	sort.SliceStable(r.Categories, func(i, j int) bool {
		return r.Categories[i].Count > r.Categories[j].Count
	})

	parts := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		parts = append(parts, fmt.Sprintf("%s: %d件", c.Category, c.Count))
	}
	r.Summary = fmt.Sprintf("合計 %d 件の株主優待開示; カテゴリ別: %s", len(ds), strings.Join(parts, ", "))
	return r
}
