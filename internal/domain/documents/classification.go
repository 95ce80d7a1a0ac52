package documents

import "context"

// Classification is the external classifier's view of a page. Category is
// untrusted until checked with ValidCategory.
type Classification struct {
	Category   string  `json:"category"`
	Summary    string  `json:"summary"`
	ExpiryDate *string `json:"expiryDate"`
	WorkerName *string `json:"workerName"`
	IsValid    bool    `json:"isValid"`
}

// Classifier labels an archival bitmap. Implementations never fail; they
// degrade to FallbackClassification.
type Classifier interface {
	Classify(ctx context.Context, payload string) Classification
}

func FallbackClassification() Classification {
	return Classification{
		Category: string(DefaultCategory),
		Summary:  FallbackSummary,
		IsValid:  true,
	}
}

func (c Classification) ValidCategory() (Category, bool) {
	return ParseCategory(c.Category)
}

func (c Classification) Expiry() string {
	if c.ExpiryDate == nil {
		return ""
	}
	date, err := ParseDate(*c.ExpiryDate)
	if err != nil {
		return ""
	}
	return date
}

func (c Classification) Worker() string {
	if c.WorkerName == nil {
		return ""
	}
	return *c.WorkerName
}

// ResolveCategory applies the precedence explicit override, then a valid
// classifier category, then the default.
func ResolveCategory(override Category, c Classification) Category {
	if resolved, ok := ParseCategory(string(override)); ok {
		return resolved
	}
	if resolved, ok := c.ValidCategory(); ok {
		return resolved
	}
	return DefaultCategory
}
