package model

import (
	"time"
)

// TitleKeyLength is the number of runes of a title used for identity
// comparisons. The Notion title column is written with the same truncation.
const TitleKeyLength = 100

// Disclosure is one benefit-related TDnet announcement, normalized.
type Disclosure struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	CompanyCode    string   `json:"company_code"`
	CompanyName    string   `json:"company_name"`
	DisclosureDate string   `json:"disclosure_date"` // YYYY-MM-DD
	DisclosureTime string   `json:"disclosure_time"` // pubdate as published by the feed
	DocumentURL    string   `json:"document_url"`
	Category       Category `json:"category"`
	Markets        string   `json:"markets,omitempty"`
	XBRLURL        string   `json:"xbrl_url,omitempty"`
	LocalFilePath  string   `json:"local_file_path,omitempty"`
	FileSize       int64    `json:"file_size,omitempty"`
}

// Key returns the natural identity of the disclosure. The source ID is not
// part of it because the feed may reissue an announcement under a new ID.
func (d Disclosure) Key() Key {
	return Key{
		CompanyCode:    d.CompanyCode,
		Title:          TruncateTitle(d.Title),
		DisclosureTime: d.DisclosureTime,
	}
}

// Key is the (company_code, title, disclosure_time) triple.
type Key struct {
	CompanyCode    string
	Title          string
	DisclosureTime string
}

// TruncateTitle cuts s to TitleKeyLength runes.
func TruncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= TitleKeyLength {
		return s
	}
	return string(r[:TitleKeyLength])
}

// BenefitInfo holds fields heuristically extracted from a disclosure title.
// Every field is optional.
type BenefitInfo struct {
	Content         string     `json:"content,omitempty"`
	RequiredShares  *int64     `json:"required_shares,omitempty"`
	BenefitValue    *int64     `json:"benefit_value,omitempty"`
	EntitlementDate *time.Time `json:"entitlement_date,omitempty"`
}

// Empty reports whether no field was extracted.
func (b BenefitInfo) Empty() bool {
	return b.Content == "" && b.RequiredShares == nil && b.BenefitValue == nil && b.EntitlementDate == nil
}
