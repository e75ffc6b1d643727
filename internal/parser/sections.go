package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tranvu/amazon-product-export/internal/models"
)

// secondaryDetailFields is the allow-list for the detail-bullets region,
// checked in this order; the first name a line starts with wins.
var secondaryDetailFields = []string{
	"Package Dimensions",
	"Product Dimensions",
	"Item model number",
	"UPC",
	"Manufacturer",
	"ASIN",
	"Country of Origin",
	"Publisher",
	"Language",
	"Paperback",
	"Hardcover",
	"ISBN-10",
	"ISBN-13",
	"Dimensions",
	"Item Weight",
	"Weight",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// extractDetailsTable reads the "About this item" micro table, pairing each
// row's bold label cell with its value cell. Rows missing either side are
// skipped.
func extractDetailsTable(doc *goquery.Document) *models.DetailMap {
	details := models.NewDetailMap()

	doc.Find("table.a-normal.a-spacing-micro").Each(func(i int, table *goquery.Selection) {
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			key := strings.TrimSpace(row.Find("td.a-span3 span.a-text-bold").Text())
			value := strings.TrimSpace(row.Find("td.a-span9 span.a-size-base").Text())
			if key != "" && value != "" {
				details.Set(key, value)
			}
		})
	})

	return details
}

// extractSecondaryDetails scans the detail-bullets region for allow-listed
// fields and renders them as a "label : value" text blob. Each field is
// emitted at most once even when the region repeats it in nested elements.
func extractSecondaryDetails(doc *goquery.Document) string {
	var b strings.Builder
	seen := make(map[string]bool)

	doc.Find("#detailBulletsWrapper_feature_div").Find("ul.a-unordered-list, div.a-section").Each(func(i int, list *goquery.Selection) {
		list.Find("li, div").Each(func(j int, item *goquery.Selection) {
			text := whitespaceRun.ReplaceAllString(strings.TrimSpace(item.Text()), " ")
			for _, field := range secondaryDetailFields {
				if !strings.HasPrefix(text, field) {
					continue
				}
				if !seen[field] {
					seen[field] = true
					key, value, found := strings.Cut(text, ":")
					if !found {
						value = ""
					}
					b.WriteString(strings.TrimSpace(key))
					b.WriteString(" : ")
					b.WriteString(strings.TrimSpace(value))
					b.WriteString("\n")
				}
				break
			}
		})
	})

	out := strings.TrimSpace(b.String())
	if out == "" {
		return models.NoSecondaryDetails
	}
	return out
}

// extractTechnicalDetails reads every header/value row under the general
// product-details tables.
func extractTechnicalDetails(doc *goquery.Document) *models.DetailMap {
	return extractSpecTable(doc, "#productDetails_feature_div table")
}

// extractMoreTechnicalDetails reads the extended tech-spec section. Same
// row shape as the general tables, different page region.
func extractMoreTechnicalDetails(doc *goquery.Document) *models.DetailMap {
	return extractSpecTable(doc, "#productDetails_techSpec_section_1")
}

func extractSpecTable(doc *goquery.Document, selector string) *models.DetailMap {
	details := models.NewDetailMap()

	doc.Find(selector).Each(func(i int, table *goquery.Selection) {
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			key := strings.TrimSpace(row.Find("th").Text())
			value := strings.TrimSpace(row.Find("td").Text())
			if key != "" && value != "" {
				details.Set(key, cleanValue(value))
			}
		})
	})

	return details
}
