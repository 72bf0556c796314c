// Package extract pulls structured benefit fields out of free-text
// disclosure titles. Every rule is a best-effort heuristic; most titles yield
// nothing and that is not an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/sells-group/yuutai-cli/internal/model"
)

// NumberRule pairs a pattern with the function that turns its submatches
// into a value.
type NumberRule struct {
	Name    string
	Pattern *regexp.Regexp
	Value   func(m []string) (int64, bool)
}

// Apply runs the rule against s.
func (r NumberRule) Apply(s string) (int64, bool) {
	m := r.Pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return r.Value(m)
}

// NumberRules is an ordered rule list; the first rule whose pattern matches
// decides the result.
type NumberRules []NumberRule

// First returns the value of the first matching rule. A matching rule whose
// value cannot be computed still ends the search.
func (rs NumberRules) First(s string) (int64, bool) {
	for _, r := range rs {
		if !r.Pattern.MatchString(s) {
			continue
		}
		return r.Apply(s)
	}
	return 0, false
}

func plain(m []string) (int64, bool) {
	return atoi(m[1])
}

func times(mul int64) func([]string) (int64, bool) {
	return func(m []string) (int64, bool) {
		n, ok := atoi(m[1])
		if !ok {
			return 0, false
		}
		return n * mul, true
	}
}

// thousands joins "1,500" style groups as hi*1000 + lo.
func thousands(m []string) (int64, bool) {
	hi, ok := atoi(m[1])
	if !ok {
		return 0, false
	}
	lo, ok := atoi(m[2])
	if !ok {
		return 0, false
	}
	return hi*1000 + lo, true
}

func atoi(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// ShareRules extract the required share count.
var ShareRules = NumberRules{
	{Name: "shares", Pattern: regexp.MustCompile(`(\d+)株`), Value: plain},
	{Name: "units", Pattern: regexp.MustCompile(`(\d+)単元`), Value: plain},
	{Name: "ten_thousand_shares", Pattern: regexp.MustCompile(`(\d+)万株`), Value: times(10000)},
	{Name: "grouped_shares", Pattern: regexp.MustCompile(`(\d+),(\d+)株`), Value: thousands},
}

// ValueRules extract the monetary value of the benefit in yen.
var ValueRules = NumberRules{
	{Name: "yen", Pattern: regexp.MustCompile(`(\d+)円`), Value: plain},
	{Name: "grouped_yen", Pattern: regexp.MustCompile(`(\d+),(\d+)円`), Value: thousands},
	{Name: "ten_thousand_yen", Pattern: regexp.MustCompile(`(\d+)万円`), Value: times(10000)},
}

// ContentKeywords name the benefit kind; the first one found in the title
// wins.
var ContentKeywords = []string{"商品券", "クオカード", "食事券", "割引券", "商品", "ギフト", "カタログ"}

// DateRule turns a pattern match into a calendar date.
type DateRule struct {
	Name    string
	Pattern *regexp.Regexp
	Date    func(m []string, now time.Time) (time.Time, bool)
}

// DateRules extract the entitlement date. The first matching pattern ends
// the search even when its date turns out to be invalid.
var DateRules = []DateRule{
	{Name: "month_day", Pattern: regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`), Date: monthDay},
	{Name: "year_month_day", Pattern: regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`), Date: yearMonthDay},
}

func monthDay(m []string, now time.Time) (time.Time, bool) {
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	return civilDate(now.Year(), month, day)
}

func yearMonthDay(m []string, _ time.Time) (time.Time, bool) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return civilDate(year, month, day)
}

// civilDate builds a UTC date and rejects values time.Date would normalize,
// such as April 31st.
func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// Normalize folds full-width digits, commas and letters to their ASCII forms
// so the rules see "100株" whether the title was typed as "１００株" or not.
func Normalize(title string) string {
	return width.Fold.String(title)
}

// Benefit extracts what it can from title. It returns nil when no rule
// matched anything. now supplies the year for dates written without one.
func Benefit(title string, now time.Time) *model.BenefitInfo {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	s := Normalize(title)

	var info model.BenefitInfo

	if n, ok := ShareRules.First(s); ok {
		info.RequiredShares = &n
	}

	for _, kw := range ContentKeywords {
		if strings.Contains(s, kw) {
			info.Content = kw + "関連優待"
			break
		}
	}

	if n, ok := ValueRules.First(s); ok {
		info.BenefitValue = &n
	}

	for _, r := range DateRules {
		m := r.Pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if d, ok := r.Date(m, now); ok {
			info.EntitlementDate = &d
		}
		break
	}

	if info.Empty() {
		return nil
	}
	return &info
}
