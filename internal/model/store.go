package model

// DefaultThemeColor is applied when onboarding a store without a theme.
const DefaultThemeColor = "#0A7C2F"

// Store is the tenant root. Every tenant-scoped row carries its ID.
type Store struct {
	BaseModel
	Slug       string `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Phone      string `gorm:"type:varchar(30);not null" json:"phone"`
	ThemeColor string `gorm:"type:varchar(20);not null" json:"theme_color"`
}

// StoreSummary is the public storefront view of a store.
type StoreSummary struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	ThemeColor string `json:"theme_color"`
}

func (s *Store) ToSummary() StoreSummary {
	return StoreSummary{
		Slug:       s.Slug,
		Name:       s.Name,
		Phone:      s.Phone,
		ThemeColor: s.ThemeColor,
	}
}
