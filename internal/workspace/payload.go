package workspace

import (
	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/yuutai-cli/internal/model"
)

// ErrUnknownCategory is returned when a disclosure carries a category the
// table schema does not register.
var ErrUnknownCategory = eris.New("workspace: category not registered in schema")

// BuildRowProperties maps a disclosure and its extracted benefit fields to
// the properties of a new row. Optional fields are omitted when empty.
func BuildRowProperties(d model.Disclosure, info *model.BenefitInfo) (notionapi.Properties, error) {
	cat := d.Category
	if cat == "" {
		cat = model.CategoryOther
	}
	if !cat.Valid() || !registered(cat) {
		return nil, eris.Wrapf(ErrUnknownCategory, "category %q", cat)
	}

	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: richText(model.TruncateTitle(d.Title)),
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(cat)},
		},
		PropCompanyCode: notionapi.RichTextProperty{RichText: richText(d.CompanyCode)},
		PropCompanyName: notionapi.RichTextProperty{RichText: richText(d.CompanyName)},
		PropTime:        notionapi.RichTextProperty{RichText: richText(d.DisclosureTime)},
	}
	if d.Markets != "" {
		props[PropMarket] = notionapi.RichTextProperty{RichText: richText(d.Markets)}
	}

	if info == nil {
		return props, nil
	}
	if info.Content != "" {
		props[PropContent] = notionapi.RichTextProperty{RichText: richText(info.Content)}
	}
	if info.RequiredShares != nil {
		props[PropRequiredShares] = notionapi.NumberProperty{Number: float64(*info.RequiredShares)}
	}
	if info.BenefitValue != nil {
		props[PropBenefitValue] = notionapi.NumberProperty{Number: float64(*info.BenefitValue)}
	}
	if info.EntitlementDate != nil {
		start := notionapi.Date(*info.EntitlementDate)
		props[PropEntitlement] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		}
	}
	return props, nil
}

// identityFilter matches rows whose title, company code and disclosure time
// equal the disclosure's identity key.
func identityFilter(d model.Disclosure) notionapi.Filter {
	k := d.Key()
	return notionapi.AndCompoundFilter{
		notionapi.PropertyFilter{
			Property: PropTitle,
			RichText: &notionapi.TextFilterCondition{Equals: k.Title},
		},
		notionapi.PropertyFilter{
			Property: PropCompanyCode,
			RichText: &notionapi.TextFilterCondition{Equals: k.CompanyCode},
		},
		notionapi.PropertyFilter{
			Property: PropTime,
			RichText: &notionapi.TextFilterCondition{Equals: k.DisclosureTime},
		},
	}
}

func richText(s string) []notionapi.RichText {
	if s == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}
