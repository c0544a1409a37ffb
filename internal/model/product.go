package model

// ProductCandidate is one product proposed by the answer-engine search.
type ProductCandidate struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// ProductDetail is a cleaned shopping hit keyed by the Detail* constants.
type ProductDetail map[string]interface{}

// Detail keys.
const (
	DetailName         = "name"
	DetailPrice        = "price"
	DetailImageURL     = "image_url"
	DetailPurchaseLink = "purchase_link"
	DetailSource       = "source"
	DetailRating       = "rating"
	DetailReviews      = "reviews"
	DetailShipping     = "shipping"
	DetailError        = "error"
)

const (
	PriceNotAvailable = "Price not available"
	PriceUnavailable  = "Price unavailable"
)

// String returns the value under key when it is a string.
func (d ProductDetail) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// EnrichedProduct merges a candidate's descriptive fields with the commercial
// fields of its best shopping hit.
type EnrichedProduct struct {
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Description  string          `json:"description,omitempty"`
	Features     []string        `json:"features"`
	Price        string          `json:"price,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	PurchaseLink string          `json:"purchase_link,omitempty"`
	Source       string          `json:"source,omitempty"`
	Rating       interface{}     `json:"rating,omitempty"`
	Reviews      interface{}     `json:"reviews,omitempty"`
	Shipping     string          `json:"shipping,omitempty"`
	DetailsError string          `json:"details_error,omitempty"`
	Offers       []ProductDetail `json:"offers"`
}

// Enrich builds the EnrichedProduct for c from its detail records. The first
// record supplies the commercial fields; the rest are kept as offers.
func Enrich(c ProductCandidate, details []ProductDetail) EnrichedProduct {
	p := EnrichedProduct{
		Name:        c.Name,
		Brand:       c.Brand,
		Description: c.Description,
		Features:    c.Features,
		Offers:      []ProductDetail{},
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if len(details) == 0 {
		return p
	}

	best := details[0]
	p.Price = best.String(DetailPrice)
	p.ImageURL = best.String(DetailImageURL)
	p.PurchaseLink = best.String(DetailPurchaseLink)
	p.Source = best.String(DetailSource)
	p.Rating = best[DetailRating]
	p.Reviews = best[DetailReviews]
	p.Shipping = best.String(DetailShipping)
	p.DetailsError = best.String(DetailError)

	if len(details) > 1 {
		p.Offers = append(p.Offers, details[1:]...)
	}
	return p
}
