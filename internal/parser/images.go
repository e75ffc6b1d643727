package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const imageCDNPrefix = "https://m.media-amazon.com/images/I/"

var (
	hiResURLPattern  = regexp.MustCompile(`"hiRes":\s*"(https://m\.media-amazon\.com/images/I/[^"]+\.jpg)"`)
	colorObjPattern  = regexp.MustCompile(`var obj = jQuery\.parseJSON\('(.+?)'\);`)
	escapedQuotePair = strings.NewReplacer(`\'`, `'`)
)

// colorImageData is the embedded image-block payload. The format is not
// contractually stable; anything that fails to parse degrades to empty.
type colorImageData struct {
	ColorImages map[string][]struct {
		HiRes string `json:"hiRes"`
	} `json:"colorImages"`
	ColorToAsin map[string]struct {
		ASIN string `json:"asin"`
	} `json:"colorToAsin"`
}

// extractMainImages collects every hiRes image URL from the ImageBlockATF
// script blob, first-seen order, deduplicated.
func extractMainImages(doc *goquery.Document) []string {
	script := findScript(doc, "ImageBlockATF")
	if script == "" {
		return []string{}
	}

	var urls []string
	seen := make(map[string]bool)
	for _, match := range hiResURLPattern.FindAllStringSubmatch(script, -1) {
		url := match[1]
		if !seen[url] {
			seen[url] = true
			urls = append(urls, url)
		}
	}
	if urls == nil {
		return []string{}
	}
	return urls
}

// extractVariantImages joins the embedded colorImages and colorToAsin
// structures by color label, producing identifier to ordered deduplicated
// hiRes URL lists. Malformed embedded data yields an empty mapping, never
// an error: image absence must not fail the extraction.
func extractVariantImages(doc *goquery.Document) map[string][]string {
	hiRes := make(map[string][]string)

	script := findScript(doc, "var obj = jQuery.parseJSON(")
	if script == "" {
		return hiRes
	}

	match := colorObjPattern.FindStringSubmatch(script)
	if len(match) < 2 {
		return hiRes
	}

	var data colorImageData
	if err := json.Unmarshal([]byte(escapedQuotePair.Replace(match[1])), &data); err != nil {
		return hiRes
	}

	for color, images := range data.ColorImages {
		asin := data.ColorToAsin[color].ASIN
		if asin == "" {
			continue
		}
		var urls []string
		seen := make(map[string]bool)
		for _, img := range images {
			if !strings.Contains(img.HiRes, imageCDNPrefix) || seen[img.HiRes] {
				continue
			}
			seen[img.HiRes] = true
			urls = append(urls, img.HiRes)
		}
		hiRes[asin] = urls
	}

	return hiRes
}

// extractMainImageASIN reads the identifier the primary image block is
// keyed to, falling back to the input identifier when absent.
func extractMainImageASIN(doc *goquery.Document, fallback string) string {
	if asin, ok := doc.Find("#imageBlock_feature_div").Attr("data-csa-c-asin"); ok && asin != "" {
		return asin
	}
	return fallback
}

func findScript(doc *goquery.Document, marker string) string {
	var found string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, marker) {
			found = text
			return false
		}
		return true
	})
	return found
}
