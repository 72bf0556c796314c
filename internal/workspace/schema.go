// Package workspace writes disclosures into the Notion workspace: it
// resolves the disclosure table, gates rows on the identity key, creates
// rows and attaches their documents.
package workspace

import (
	"github.com/jomei/notionapi"

	"github.com/sells-group/yuutai-cli/internal/model"
)

// DatabaseName is the title of the unified disclosure table.
const DatabaseName = "株主優待開示情報"

// Column names of the disclosure table.
const (
	PropTitle          = "タイトル"
	PropFile           = "PDFファイル"
	PropCategory       = "カテゴリ"
	PropBenefitValue   = "優待価値"
	PropRequiredShares = "必要株式数"
	PropContent        = "優待内容"
	PropCompanyCode    = "銘柄コード"
	PropEntitlement    = "権利確定日"
	PropCompanyName    = "銘柄名"
	PropTime           = "開示時刻"
	PropMarket         = "市場"
)

// Schema returns the fixed column set. The category select registers every
// category the categorizer can emit.
func Schema() notionapi.PropertyConfigs {
	cats := model.AllCategories()
	options := make([]notionapi.Option, 0, len(cats))
	for _, c := range cats {
		options = append(options, notionapi.Option{Name: string(c), Color: notionapi.ColorDefault})
	}

	return notionapi.PropertyConfigs{
		PropTitle: notionapi.TitlePropertyConfig{Type: notionapi.PropertyConfigTypeTitle},
		PropFile:  notionapi.FilesPropertyConfig{Type: notionapi.PropertyConfigTypeFiles},
		PropCategory: notionapi.SelectPropertyConfig{
			Type:   notionapi.PropertyConfigTypeSelect,
			Select: notionapi.Select{Options: options},
		},
		PropBenefitValue: notionapi.NumberPropertyConfig{
			Type:   notionapi.PropertyConfigTypeNumber,
			Number: notionapi.NumberFormat{Format: notionapi.FormatNumber},
		},
		PropRequiredShares: notionapi.NumberPropertyConfig{
			Type:   notionapi.PropertyConfigTypeNumber,
			Number: notionapi.NumberFormat{Format: notionapi.FormatNumber},
		},
		PropContent:     notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		PropCompanyCode: notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		PropEntitlement: notionapi.DatePropertyConfig{Type: notionapi.PropertyConfigTypeDate},
		PropCompanyName: notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		PropTime:        notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
		PropMarket:      notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText},
	}
}

// registered reports whether the schema's category select carries c.
func registered(c model.Category) bool {
	sel, ok := Schema()[PropCategory].(notionapi.SelectPropertyConfig)
	if !ok {
		return false
	}
	for _, o := range sel.Select.Options {
		if o.Name == string(c) {
			return true
		}
	}
	return false
}
