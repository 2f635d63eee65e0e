package executor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poolbot/server/internal/agent/model"
)

const (
	msgPricingUnavailable = "Sorry, I couldn't retrieve pricing information. Error: %s"
	msgNoPricing          = "I couldn't find pricing information for that part."
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Renderer turns backend records into the chat text blocks.
type Renderer struct {
	linkBase string
}

func NewRenderer(linkBase string) *Renderer {
	return &Renderer{linkBase: strings.TrimRight(linkBase, "/")}
}

func (r *Renderer) detailsURL(link string) string {
	return r.linkBase + "/" + strings.TrimLeft(link, "/")
}

// ProductInfo renders the PRODUCT_INFO block.
func (r *Renderer) ProductInfo(p *model.Product) string {
	var b strings.Builder
	b.WriteString("ℹ️ Product Information:\n")
	fmt.Fprintf(&b, "• Name: %s\n", p.ProductName)
	fmt.Fprintf(&b, "• Brand: %s\n", p.Brand)
	fmt.Fprintf(&b, "• Description: %s\n", p.Description)
	fmt.Fprintf(&b, "• Manufacturer ID: %s\n", p.ManufacturerID)
	if p.ImageURL != "" {
		fmt.Fprintf(&b, "• [View Image](%s)\n", p.ImageURL)
	}
	fmt.Fprintf(&b, "• [More Details](%s)", r.detailsURL(p.HeritageLink))
	return b.String()
}

// Price renders the PRODUCT_PRICE block for a resolved product and its first price line.
func (r *Renderer) Price(p *model.Product, partNumber string, item model.PriceItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n", p.ProductName)
	fmt.Fprintf(&b, "• Brand: %s\n", p.Brand)
	fmt.Fprintf(&b, "• Part Number: %s\n", partNumber)
	fmt.Fprintf(&b, "• Price: $%.2f\n", item.Price)
	if item.InStock {
		b.WriteString("• Stock Status: In Stock")
	} else {
		b.WriteString("• Stock Status: Out of Stock")
	}
	if item.AvailableQuantity > 0 {
		fmt.Fprintf(&b, " (%s available)", strconv.FormatFloat(item.AvailableQuantity, 'f', -1, 64))
	}
	return b.String()
}

// Search renders a cascade result, choosing the template from its strategy tag.
func (r *Renderer) Search(res model.SearchResult) string {
	var b strings.Builder
	switch res.Strategy {
	case model.StrategyExactLookup:
		b.WriteString("I found the exact product you're looking for:\n\n")
		for i := range res.Products {
			r.writeProduct(&b, &res.Products[i], true)
		}
	case model.StrategyKeyword:
		b.WriteString("Here's what I found:\n\n")
		for _, it := range res.KeywordItems {
			fmt.Fprintf(&b, "🔹 Part Number: %s\n", it.PartNumber)
			fmt.Fprintf(&b, "   ID: %s\n\n", it.ID)
		}
	default:
		b.WriteString("Here's what I found:\n\n")
		for i := range res.Products {
			r.writeProduct(&b, &res.Products[i], false)
		}
	}
	return b.String()
}

func (r *Renderer) writeProduct(b *strings.Builder, p *model.Product, withDescription bool) {
	fmt.Fprintf(b, "🔹 %s\n", p.ProductName)
	fmt.Fprintf(b, "   Brand: %s\n", p.Brand)
	fmt.Fprintf(b, "   Part Number: %s\n", p.PartNumber)
	if withDescription && p.Description != "" {
		fmt.Fprintf(b, "   Description: %s\n", p.Description)
	}
	if p.ImageURL != "" {
		fmt.Fprintf(b, "   [View Image](%s)\n", p.ImageURL)
	}
	fmt.Fprintf(b, "   [More Details](%s)\n\n", r.detailsURL(p.HeritageLink))
}

// Stores renders the STORE_INFO block.
func (r *Renderer) Stores(stores []model.Store) string {
	var b strings.Builder
	b.WriteString("📍 Nearby Stores:\n\n")
	for _, s := range stores {
		fmt.Fprintf(&b, "🏪 %s\n", s.Name)
		fmt.Fprintf(&b, "📍 %s, %s, %s %s\n", s.Address.Street, s.Address.City, s.Address.State, s.Address.Zip)
		fmt.Fprintf(&b, "📞 %s\n", s.Contact.Phone)
		fmt.Fprintf(&b, "📧 %s\n", s.Contact.Email)
		if s.Location != nil && s.Location.Distance != 0 {
			fmt.Fprintf(&b, "📏 %.1f miles away\n", s.Location.Distance)
		}
		if len(s.Hours) > 0 {
			b.WriteString("⏰ Hours:\n")
			for _, day := range orderedDays(s.Hours) {
				h := s.Hours[day]
				if h.Open != "" && h.Close != "" {
					fmt.Fprintf(&b, "   %s: %s - %s\n", capitalize(day), h.Open, h.Close)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// orderedDays lists weekday keys Monday first, then any other keys sorted.
// Case variants of one weekday are kept together in sorted order.
func orderedDays(hours map[string]model.StoreDayHours) []string {
	keys := make([]string, 0, len(hours))
	for key := range hours {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	days := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, wd := range weekdays {
		for _, key := range keys {
			if strings.EqualFold(key, wd) && !seen[key] {
				days = append(days, key)
				seen[key] = true
			}
		}
	}
	for _, key := range keys {
		if !seen[key] {
			days = append(days, key)
		}
	}
	return days
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
