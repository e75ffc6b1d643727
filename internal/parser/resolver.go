package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tranvu/amazon-product-export/internal/models"
)

// Attribute configures one heuristic lookup for the generic field
// resolver: a display name, the substrings that identify a matching key or
// line, and an optional shape pattern the matched text must satisfy.
// FallbackTerms name a second textual match to mine with the same shape
// pattern when no primary term matches anywhere.
type Attribute struct {
	Name          string
	Terms         []string
	FallbackTerms []string
	Shape         *regexp.Regexp
}

var (
	weightShape    = regexp.MustCompile(`(?i)(\d+(\.\d+)?)\s*(ounces|pounds|grams|kilograms|oz|lbs|g|kg)`)
	dimensionShape = regexp.MustCompile(`(\d+(\.\d+)?)\s*x\s*(\d+(\.\d+)?)\s*x\s*(\d+(\.\d+)?)`)
)

// Attributes every export column resolves through. One routine plus this
// table, never per-attribute code.
var (
	AttrUPC            = Attribute{Name: "UPC", Terms: []string{"upc"}}
	AttrBrand          = Attribute{Name: "Brand", Terms: []string{"brand"}}
	AttrManufacturer   = Attribute{Name: "Manufacturer", Terms: []string{"manufacturer"}}
	AttrItemForm       = Attribute{Name: "Item Form", Terms: []string{"item form"}}
	AttrBenefits       = Attribute{Name: "Product Benefits", Terms: []string{"product benefits"}}
	AttrScent          = Attribute{Name: "Scent", Terms: []string{"scent"}}
	AttrMaterialType   = Attribute{Name: "Material Type", Terms: []string{"material"}}
	AttrSkinType       = Attribute{Name: "Skin Type", Terms: []string{"skin type"}}
	AttrItemVolume     = Attribute{Name: "Item Volume", Terms: []string{"item volume"}}
	AttrAgeRange       = Attribute{Name: "Age Range", Terms: []string{"age range"}}
	AttrSpecialFeature = Attribute{Name: "Special Feature", Terms: []string{"special feature"}}
	AttrPublisher      = Attribute{Name: "Publisher", Terms: []string{"publisher"}}
	AttrLanguage       = Attribute{Name: "Language", Terms: []string{"language"}}
	AttrPaperback      = Attribute{Name: "Paperback", Terms: []string{"paperback"}}
	AttrHardcover      = Attribute{Name: "Hardcover", Terms: []string{"hardcover"}}
	AttrISBN10         = Attribute{Name: "ISBN-10", Terms: []string{"isbn-10"}}
	AttrISBN13         = Attribute{Name: "ISBN-13", Terms: []string{"isbn-13"}}
	// Shipping pages often fold the weight into the dimensions line
	// ("5 x 4 x 3 inches; 1.2 Pounds"), so weight falls back to
	// mining it from there.
	AttrWeight     = Attribute{Name: "Weight", Terms: []string{"weight"}, FallbackTerms: []string{"dimensions"}, Shape: weightShape}
	AttrDimensions = Attribute{Name: "Dimensions", Terms: []string{"dimensions"}, Shape: dimensionShape}
)

// NotFoundValue is the resolver's deterministic not-found marker. It embeds
// the attribute's display name so spreadsheet cells stay self-describing.
func NotFoundValue(attrName string) string {
	return fmt.Sprintf("no %s information found", strings.ToLower(attrName))
}

// Resolve hunts for one attribute across a record's detail sources. Search
// order is fixed: detailsTable, detailsSecondary, technicalDetails,
// moreTechnicalDetails; the earliest source with a match wins. Within a
// mapping source, keys are scanned in insertion order and match when any
// search term appears in the key, case-insensitive. Within the text blob,
// a matching line is split on its first colon. The shape pattern is
// applied once, to the first textual match only; a match that fails the
// pattern ends the lookup with the not-found value. When no primary term
// matches anywhere, the fallback terms are scanned the same way and mined
// with the same shape pattern.
func Resolve(rec *models.ProductRecord, attr Attribute) string {
	if value, ok := scanSources(rec, attr.Terms); ok {
		if attr.Shape == nil {
			return cleanValue(value)
		}
		if shaped := attr.Shape.FindString(value); shaped != "" {
			return cleanValue(shaped)
		}
		return NotFoundValue(attr.Name)
	}
	if attr.Shape != nil && len(attr.FallbackTerms) > 0 {
		if value, ok := scanSources(rec, attr.FallbackTerms); ok {
			if shaped := attr.Shape.FindString(value); shaped != "" {
				return cleanValue(shaped)
			}
		}
	}
	return NotFoundValue(attr.Name)
}

// ResolveDimensions decomposes the matched dimensions text into length,
// width and height. All three are empty when no source carries an
// "N x N x N" shaped value.
func ResolveDimensions(rec *models.ProductRecord) (length, width, height string) {
	v := Resolve(rec, AttrDimensions)
	matches := dimensionShape.FindStringSubmatch(v)
	if len(matches) < 6 {
		return "", "", ""
	}
	return matches[1], matches[3], matches[5]
}

// scanSources walks the record's detail sources in priority order and
// returns the raw value of the first key or line matching any term.
func scanSources(rec *models.ProductRecord, terms []string) (string, bool) {
	if v, ok := matchInMap(rec.DetailsTable, terms); ok {
		return v, true
	}
	if v, ok := matchInBlob(rec.DetailsSecondary, terms); ok {
		return v, true
	}
	if v, ok := matchInMap(rec.TechnicalDetails, terms); ok {
		return v, true
	}
	return matchInMap(rec.MoreTechnicalDetails, terms)
}

func matchInMap(details *models.DetailMap, terms []string) (string, bool) {
	if details == nil {
		return "", false
	}
	for _, key := range details.Keys() {
		if !matchesTerm(key, terms) {
			continue
		}
		value, _ := details.Get(key)
		return value, true
	}
	return "", false
}

func matchInBlob(blob string, terms []string) (string, bool) {
	for _, line := range strings.Split(blob, "\n") {
		if !matchesTerm(line, terms) {
			continue
		}
		_, value, found := strings.Cut(line, ":")
		if !found {
			value = line
		}
		return strings.TrimSpace(value), true
	}
	return "", false
}

func matchesTerm(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// cleanValue strips the junk Amazon prepends to detail values: leading
// whitespace, colons, bidirectional text marks, and the literal "&lrm;"
// escape token.
func cleanValue(value string) string {
	value = strings.TrimLeft(value, " \t\r\n:\u200e\u200f\u061c")
	value = strings.TrimPrefix(value, "&lrm;")
	return strings.TrimSpace(value)
}
