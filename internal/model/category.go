package model

// Category classifies a benefit disclosure. The string values are the
// select options registered on the Notion table.
type Category string

const (
	CategoryEstablished Category = "優待新設"
	CategoryChanged     Category = "優待変更"
	CategoryAbolished   Category = "優待廃止"
	CategoryContent     Category = "優待内容"
	CategoryRecordDate  Category = "権利基準日"
	CategoryGeneral     Category = "優待制度"
	CategoryOther       Category = "その他"
)

// AllCategories returns every category the classifier can emit, in the
// order they are registered as select options.
func AllCategories() []Category {
	return []Category{
		CategoryEstablished,
		CategoryChanged,
		CategoryAbolished,
		CategoryContent,
		CategoryRecordDate,
		CategoryGeneral,
		CategoryOther,
	}
}

// Valid reports whether c is one of AllCategories.
func (c Category) Valid() bool {
	for _, v := range AllCategories() {
		if c == v {
			return true
		}
	}
	return false
}
