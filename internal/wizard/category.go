package wizard

import (
	"encoding/json"
	"fmt"
	"strings"

	"labdesk/internal/validation"
)

// Organization categories offered in step 2.
const (
	CategoryProprietorship = "Proprietorship"
	CategoryPartnership    = "Partnership"
	CategoryLLP            = "LLP"
	CategoryPrivateLimited = "Private Limited"
	CategoryPublicLimited  = "Public Limited"
	CategoryGovernment     = "Government"
	CategoryTrust          = "Trust/Society"
	CategoryOther          = "Other"
)

// ListedCategories are the categories that need no extra fields.
var ListedCategories = []string{
	CategoryProprietorship,
	CategoryPartnership,
	CategoryLLP,
	CategoryPrivateLimited,
	CategoryPublicLimited,
	CategoryGovernment,
	CategoryTrust,
}

// Category is the legal form of the organization. It is either a Listed
// category or Other with a free-text description; the two never mix.
type Category interface {
	Kind() string
	validate(ve *validation.ValidationErrors)
}

// Listed is one of ListedCategories.
type Listed struct {
	Name string
}

func (c Listed) Kind() string { return c.Name }

func (c Listed) validate(ve *validation.ValidationErrors) {
	validation.ValidateEnum(ve, "organizationCategory", c.Name, ListedCategories)
}

// Other is a category outside the list. Description is required.
type Other struct {
	Description string
}

func (Other) Kind() string { return CategoryOther }

func (c Other) validate(ve *validation.ValidationErrors) {
	validation.RequireField(ve, "otherCategoryDescription", c.Description)
}

// OrgCategory carries a Category through JSON as
// {"kind": "...", "description": "..."}. A nil Category means nothing was
// selected yet.
type OrgCategory struct {
	Category
}

type categoryJSON struct {
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

func (c OrgCategory) MarshalJSON() ([]byte, error) {
	switch v := c.Category.(type) {
	case nil:
		return []byte("null"), nil
	case Other:
		return json.Marshal(categoryJSON{Kind: CategoryOther, Description: v.Description})
	default:
		return json.Marshal(categoryJSON{Kind: v.Kind()})
	}
}

func (c *OrgCategory) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.Category = nil
		return nil
	}
	var raw categoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("organization category: %w", err)
	}
	switch strings.TrimSpace(raw.Kind) {
	case "", "Select":
		c.Category = nil
	case CategoryOther:
		c.Category = Other{Description: raw.Description}
	default:
		if raw.Description != "" {
			return fmt.Errorf("organization category %q does not take a description", raw.Kind)
		}
		c.Category = Listed{Name: raw.Kind}
	}
	return nil
}
