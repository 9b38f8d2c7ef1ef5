// Package catalog builds the storefront listing view models: product
// cards filtered to the shown categories, with price/size fallbacks and
// the viewer deep link per card.
package catalog

import (
	"strings"

	"modelhaus/api/internal/dimensions"
	"modelhaus/api/internal/viewer"
)

// Record is one entry of the static product listing source.
type Record struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	PriceString string   `json:"price_string"`
	SizeOptions []string `json:"size_options"`
	Images      []string `json:"images"`
	URL         string   `json:"url"`
	ModelURL    string   `json:"model_url"`
}

const (
	priceInquireLabel = "洽詢"
	unknownNameLabel  = "未知產品"
	sizeMissingLabel  = "未提供"
	placeholderImage  = "placeholder.jpg"
)

// Card is the render payload for one product.
type Card struct {
	Name       string  `json:"name"`
	PriceLabel string  `json:"priceLabel"`
	SizeLabel  string  `json:"sizeLabel"`
	ProductURL string  `json:"productUrl"`
	ViewerURL  string  `json:"viewerUrl"`
	Gallery    Gallery `json:"gallery"`
}

// BuildCards filters records to the category whitelist and maps each
// survivor onto a card.
func BuildCards(records []Record, categories []string, viewerPage string) []Card {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}

	cards := make([]Card, 0, len(records))
	for _, r := range records {
		if _, ok := allowed[r.Category]; !ok {
			continue
		}
		cards = append(cards, buildCard(r, viewerPage))
	}
	return cards
}

func buildCard(r Record, viewerPage string) Card {
	name := r.Name
	if name == "" {
		name = unknownNameLabel
	}

	price := r.PriceString
	if price == "" {
		price = priceInquireLabel
	}

	size := strings.Join(r.SizeOptions, ", ")
	if size == "" {
		size = sizeMissingLabel
	}

	return Card{
		Name:       name,
		PriceLabel: "NT$ " + price,
		SizeLabel:  "尺寸：" + size,
		ProductURL: r.URL,
		ViewerURL:  viewer.PageURL(viewerPage, r.ModelURL, dimensions.Parse(r.SizeOptions)),
		Gallery:    NewGallery(name, r.Images),
	}
}
