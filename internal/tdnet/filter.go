package tdnet

import (
	"regexp"
	"strings"

	"github.com/sells-group/yuutai-cli/internal/model"
)

// benefitKeywords mark a title as shareholder-benefit related on a plain
// substring match.
var benefitKeywords = []string{
	"株主優待", "優待制度", "優待内容", "株主優待制度",
	"優待", "株主特典", "株主様ご優待", "株主優待券",
	"株主優待品", "優待商品", "株主様特典",
}

// benefitPatterns catch titles the keyword list misses.
var benefitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`株主.*優待`),
	regexp.MustCompile(`優待.*制度`),
	regexp.MustCompile(`株主.*特典`),
	regexp.MustCompile(`優待.*内容`),
	regexp.MustCompile(`優待.*導入`),
	regexp.MustCompile(`優待.*変更`),
	regexp.MustCompile(`優待.*廃止`),
	regexp.MustCompile(`優待.*新設`),
}

// IsBenefitRelated reports whether a disclosure title concerns a
// shareholder-benefit program.
func IsBenefitRelated(title string) bool {
	if title == "" {
		return false
	}
	for _, kw := range benefitKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	for _, re := range benefitPatterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// categoryRule maps any of its words to a category.
type categoryRule struct {
	words    []string
	category model.Category
}

// categoryRules are evaluated in order; the first rule with a matching word
// wins.
var categoryRules = []categoryRule{
	{words: []string{"新設", "導入", "開始"}, category: model.CategoryEstablished},
	{words: []string{"変更", "修正", "見直し"}, category: model.CategoryChanged},
	{words: []string{"廃止", "終了", "中止"}, category: model.CategoryAbolished},
	{words: []string{"内容", "詳細"}, category: model.CategoryContent},
	{words: []string{"基準日", "権利"}, category: model.CategoryRecordDate},
}

// Categorize classifies a title. Empty titles are CategoryOther; titles with
// no rule match are CategoryGeneral.
func Categorize(title string) model.Category {
	if title == "" {
		return model.CategoryOther
	}
	for _, rule := range categoryRules {
		for _, w := range rule.words {
			if strings.Contains(title, w) {
				return rule.category
			}
		}
	}
	return model.CategoryGeneral
}

// NormalizeCode converts the feed's 5-character padded securities code to
// the 4-character form: a code of exactly five characters ending in "0" loses
// its last character. Every other input is returned unchanged.
func NormalizeCode(code string) string {
	if len(code) == 5 && strings.HasSuffix(code, "0") {
		return code[:4]
	}
	return code
}

var validCode = regexp.MustCompile(`^\d{4}$`)

// ValidCode reports whether code is a normalized 4-digit securities code.
func ValidCode(code string) bool {
	return validCode.MatchString(code)
}

// MatchKeywords reports whether title contains any keyword, ignoring case.
func MatchKeywords(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
