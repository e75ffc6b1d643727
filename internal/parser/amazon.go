package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tranvu/amazon-product-export/internal/models"
)

// AmazonParser turns one fetched product page into a ProductRecord. It
// holds no per-page state and is safe for concurrent use.
type AmazonParser struct{}

func NewAmazonParser() *AmazonParser {
	return &AmazonParser{}
}

func (p *AmazonParser) ParseProductPage(html string, asin string, url string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rec := models.NewProductRecord(asin, url)

	rec.Title = strings.TrimSpace(doc.Find("#productTitle").Text())
	rec.Price = strings.TrimSpace(doc.Find("#corePrice_feature_div .a-offscreen").First().Text())

	rec.Category = strings.TrimSpace(doc.Find("#wayfinding-breadcrumbs_feature_div .a-unordered-list li:first-child a").Text())
	rec.SubCategory = strings.TrimSpace(doc.Find("#wayfinding-breadcrumbs_feature_div .a-unordered-list li:last-child a").Text())

	rec.PrimaryDeliveryInfo = strings.TrimSpace(doc.Find("#mir-layout-DELIVERY_BLOCK-slot-PRIMARY_DELIVERY_MESSAGE_LARGE .a-text-bold").First().Text())
	rec.SecondaryDeliveryInfo = strings.TrimSpace(doc.Find("#mir-layout-DELIVERY_BLOCK-slot-SECONDARY_DELIVERY_MESSAGE_LARGE .a-text-bold").First().Text())
	rec.PrimeIndicator = strings.TrimSpace(doc.Find(`span[style*="color:#0064F9"]`).First().Text())

	rec.StockStatus = strings.TrimSpace(doc.Find("#availabilityInsideBuyBox_feature_div #availability .a-size-medium.a-color-success").First().Text())

	offerRows := doc.Find(".offer-display-feature-text.a-spacing-none")
	rec.ShipsFrom = strings.TrimSpace(offerRows.Eq(0).Find("span").Text())
	rec.SoldBy = strings.TrimSpace(offerRows.Eq(1).Find("span").Text())

	rec.Description = p.extractDescription(doc)
	rec.BookDescription = p.extractBookDescription(doc)
	rec.Ingredients = p.extractIngredients(doc)

	rec.DetailsTable = extractDetailsTable(doc)
	rec.DetailsSecondary = extractSecondaryDetails(doc)
	rec.TechnicalDetails = extractTechnicalDetails(doc)
	rec.MoreTechnicalDetails = extractMoreTechnicalDetails(doc)

	rec.VariantsText = extractVariants(doc)

	rec.MainImages = extractMainImages(doc)
	rec.HiResImagesByASIN = extractVariantImages(doc)
	rec.MainImageASIN = extractMainImageASIN(doc, asin)

	return rec, nil
}

func (p *AmazonParser) extractDescription(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("#feature-bullets li").Each(func(i int, item *goquery.Selection) {
		b.WriteString(strings.TrimSpace(item.Find("span").Text()))
		b.WriteString("\n")
	})
	return strings.TrimSpace(b.String())
}

func (p *AmazonParser) extractBookDescription(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("#bookDescription_feature_div .a-expander-content").Each(func(i int, s *goquery.Selection) {
		b.WriteString(strings.TrimSpace(s.Text()))
		b.WriteString("\n")
	})
	return strings.TrimSpace(b.String())
}

// extractIngredients prefers the dedicated nic-ingredients block; older
// listings only carry ingredients inside the important-information
// sections.
func (p *AmazonParser) extractIngredients(doc *goquery.Document) string {
	if block := doc.Find("#nic-ingredients-content"); block.Length() > 0 {
		return strings.TrimSpace(block.Find("span").Text())
	}

	var ingredients string
	doc.Find("#important-information .a-section.content").EachWithBreak(func(i int, section *goquery.Selection) bool {
		spanText := strings.TrimSpace(section.Find("span.a-text-bold").Text())
		headingText := strings.TrimSpace(section.Find("h1, h2, h3, h4, h5, h6").Text())
		if spanText != "Ingredients" && headingText != "Ingredients" {
			return true
		}
		ingredients = strings.TrimSpace(section.Find("p").Text())
		if ingredients == "" {
			// No paragraph: take the section's own text without its
			// child elements.
			ingredients = strings.TrimSpace(section.Clone().Children().Remove().End().Text())
		}
		return false
	})
	return ingredients
}
