package gbp

import (
	"strings"
	"time"
)

type UserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Account struct {
	Name        string `json:"name"`
	AccountName string `json:"accountName"`
	Type        string `json:"type"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type PostalAddress struct {
	AddressLines []string `json:"addressLines"`
	Locality     string   `json:"locality"`
	PostalCode   string   `json:"postalCode"`
	RegionCode   string   `json:"regionCode"`
}

// Format joins the address parts with ", ". It returns "" when every part is empty.
func (a *PostalAddress) Format() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.AddressLines)+3)
	for _, p := range append(append([]string{}, a.AddressLines...), a.Locality, a.PostalCode, a.RegionCode) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Location struct {
	Name              string         `json:"name"`
	Title             string         `json:"title"`
	StorefrontAddress *PostalAddress `json:"storefrontAddress,omitempty"`
}

// ID is the trailing segment of the resource name ("locations/123" -> "123").
func (l Location) ID() string {
	return lastSegment(l.Name)
}

type LocationsPage struct {
	Locations     []Location `json:"locations"`
	NextPageToken string     `json:"nextPageToken"`
}

type Reviewer struct {
	DisplayName string `json:"displayName"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type ReviewReply struct {
	Comment    string     `json:"comment"`
	UpdateTime *time.Time `json:"updateTime,omitempty"`
}

type Review struct {
	Name        string       `json:"name"`
	ReviewID    string       `json:"reviewId"`
	Reviewer    Reviewer     `json:"reviewer"`
	StarRating  string       `json:"starRating"`
	Comment     string       `json:"comment"`
	CreateTime  time.Time    `json:"createTime"`
	UpdateTime  time.Time    `json:"updateTime"`
	ReviewReply *ReviewReply `json:"reviewReply,omitempty"`
}

type ReviewsPage struct {
	Reviews          []Review `json:"reviews"`
	AverageRating    float64  `json:"averageRating"`
	TotalReviewCount int      `json:"totalReviewCount"`
	NextPageToken    string   `json:"nextPageToken"`
}

var starRatings = map[string]int{"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4, "FIVE": 5}

// Rating maps the StarRating enum to 1..5. ok is false for STAR_RATING_UNSPECIFIED or unknown values.
func (r Review) Rating() (int, bool) {
	v, ok := starRatings[r.StarRating]
	return v, ok
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ExternalID prefers reviewId and falls back to the resource name's last segment.
func (r Review) ExternalID() string {
	if r.ReviewID != "" {
		return r.ReviewID
	}
	return lastSegment(r.Name)
}
