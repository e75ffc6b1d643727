package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tranvu/amazon-product-export/internal/models"
)

type variantAxis struct {
	widgetID string
	name     string
}

// Fixed axis order; output concatenates axis blocks in this order.
var variantAxes = []variantAxis{
	{widgetID: "variation_flavor_name", name: "Flavor"},
	{widgetID: "variation_size_name", name: "Size"},
	{widgetID: "variation_color_name", name: "Color"},
	{widgetID: "variation_style_name", name: "Style"},
}

// extractVariants walks the per-axis selection widgets and renders one
// normalized text block: per present axis, a LABEL/SELECTION pair for the
// current choice, then an "<Axis>: <value>" / "ASIN: <id>" pair per
// selectable option. Options come from the swatch list items when present,
// otherwise from the dropdown.
func extractVariants(doc *goquery.Document) string {
	var b strings.Builder

	for _, axis := range variantAxes {
		widget := doc.Find("#" + axis.widgetID)
		if widget.Length() == 0 {
			continue
		}
		b.WriteString(extractVariantAxis(widget, axis.name))
	}

	if b.Len() == 0 {
		return models.NoVariantInfo
	}
	return b.String()
}

func extractVariantAxis(widget *goquery.Selection, axisName string) string {
	var b strings.Builder
	b.WriteString("Variants:==\n")

	label := strings.TrimSpace(widget.Find("label.a-form-label").Text())
	selection := strings.TrimSpace(widget.Find("span.selection").Text())
	if label != "" && selection != "" {
		b.WriteString(label + " " + selection + "\n\n")
		b.WriteString("LABEL:" + strings.ReplaceAll(label, ":", "") + "\nSELECTION:" + selection + "\n\n")
	}

	widget.Find("li").Each(func(i int, item *goquery.Selection) {
		value, hasTitle := item.Attr("title")
		itemID, hasID := item.Attr("data-csa-c-item-id")
		if !hasTitle || !hasID {
			return
		}
		value = strings.TrimPrefix(value, "Click to select ")
		if value != "" && itemID != "" {
			b.WriteString(axisName + ": " + value + "\nASIN: " + itemID + "\n\n")
		}
	})

	widget.Find(`select[name="dropdown_selected_` + strings.ToLower(axisName) + `_name"] option`).Each(func(i int, option *goquery.Selection) {
		value := strings.TrimSpace(option.Text())
		optionValue, _ := option.Attr("value")
		if value == "" || optionValue == "" {
			return
		}
		// Dropdown option values look like "0,B0EXAMPLE1,...".
		parts := strings.Split(optionValue, ",")
		if len(parts) < 2 {
			return
		}
		b.WriteString(axisName + ": " + value + "\nASIN: " + parts[1] + "\n\n")
	})

	return b.String()
}

// ParseVariantsText reads a variants text block back into the fixed
// five-bucket selection. It tracks the most recent LABEL line and buckets
// each following SELECTION line under it; labels outside the four known
// axes accumulate in Unknown, semicolon-separated. Pure and total: every
// input yields all five buckets.
func ParseVariantsText(variantsText string) models.VariantSelection {
	var sel models.VariantSelection
	var unknown []string
	currentLabel := ""

	for _, line := range strings.Split(variantsText, "\n") {
		switch {
		case strings.HasPrefix(line, "LABEL:"):
			_, label, _ := strings.Cut(line, ":")
			currentLabel = strings.ReplaceAll(strings.TrimSpace(label), ":", "")
		case strings.HasPrefix(line, "SELECTION:") && currentLabel != "":
			_, value, _ := strings.Cut(line, ":")
			value = strings.TrimSpace(value)
			switch currentLabel {
			case "Flavor Name":
				sel.FlavorName = value
			case "Size":
				sel.Size = value
			case "Color":
				sel.Color = value
			case "Style":
				sel.Style = value
			default:
				unknown = append(unknown, currentLabel+": "+value)
			}
		}
	}

	sel.Unknown = strings.Join(unknown, "; ")
	return sel
}

// VariantASINs lists every distinct variant identifier in a variants text
// block, first-seen order, excluding the given main identifier.
func VariantASINs(variantsText, mainASIN string) []string {
	var asins []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(variantsText, "\n") {
		if !strings.HasPrefix(line, "ASIN:") {
			continue
		}
		_, asin, _ := strings.Cut(line, ":")
		asin = strings.TrimSpace(asin)
		if asin == "" || asin == mainASIN || seen[asin] {
			continue
		}
		seen[asin] = true
		asins = append(asins, asin)
	}

	return asins
}
