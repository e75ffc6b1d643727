package models

import (
	"encoding/json"
	"time"
)

// NoVariantInfo is the variants-text sentinel for listings without any
// variant axis widget.
const NoVariantInfo = "no variant information"

// NoSecondaryDetails is the sentinel for pages whose detail-bullets region
// contains none of the allow-listed fields.
const NoSecondaryDetails = "no additional details found"

// ProductRecord is the unit of output for one scraped identifier. It is
// created fresh per extraction and must not be mutated afterwards; the
// export layer derives rows from it without writing back.
type ProductRecord struct {
	ASIN      string `json:"asin"`
	SourceURL string `json:"source_url"`

	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`

	Title                 string `json:"title"`
	Price                 string `json:"price"`
	StockStatus           string `json:"stock_status"`
	ShipsFrom             string `json:"ships_from"`
	SoldBy                string `json:"sold_by"`
	PrimaryDeliveryInfo   string `json:"primary_delivery_info"`
	SecondaryDeliveryInfo string `json:"secondary_delivery_info"`
	PrimeIndicator        string `json:"prime_indicator"`

	Description     string `json:"description"`
	BookDescription string `json:"book_description,omitempty"`
	Ingredients     string `json:"ingredients,omitempty"`

	// The four detail sources are intentionally redundant: the same
	// real-world attribute may appear in any of them under different
	// key spellings. The field resolver scans them in declaration order.
	DetailsTable         *DetailMap `json:"details_table"`
	DetailsSecondary     string     `json:"details_secondary"`
	TechnicalDetails     *DetailMap `json:"technical_details"`
	MoreTechnicalDetails *DetailMap `json:"more_technical_details"`

	VariantsText string `json:"variants_text"`

	MainImages        []string            `json:"main_images"`
	HiResImagesByASIN map[string][]string `json:"hi_res_images_by_asin"`
	MainImageASIN     string              `json:"main_image_asin"`

	IsError   bool      `json:"is_error,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// NewProductRecord returns a record with every mapping and collection
// initialized, so downstream resolution code never needs nil checks.
func NewProductRecord(asin, url string) *ProductRecord {
	return &ProductRecord{
		ASIN:                 asin,
		SourceURL:            url,
		DetailsTable:         NewDetailMap(),
		TechnicalDetails:     NewDetailMap(),
		MoreTechnicalDetails: NewDetailMap(),
		MainImages:           []string{},
		HiResImagesByASIN:    map[string][]string{},
		ScrapedAt:            time.Now(),
	}
}

// VariantSelection is the parsed form of a record's variants text. All
// five buckets are always present; unknown axes accumulate in Unknown.
type VariantSelection struct {
	FlavorName string `json:"flavor_name"`
	Size       string `json:"size"`
	Color      string `json:"color"`
	Style      string `json:"style"`
	Unknown    string `json:"unknown"`
}

// DetailMap is a label-to-value mapping that preserves insertion order.
// Resolver precedence depends on scanning keys in the order the page
// listed them, which a plain map cannot guarantee.
type DetailMap struct {
	keys   []string
	values map[string]string
}

func NewDetailMap() *DetailMap {
	return &DetailMap{values: make(map[string]string)}
}

// Set records a label-value pair. A repeated label overwrites the value
// but keeps the label's original position.
func (m *DetailMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *DetailMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns labels in insertion order.
func (m *DetailMap) Keys() []string {
	return m.keys
}

func (m *DetailMap) Len() int {
	return len(m.keys)
}

func (m *DetailMap) MarshalJSON() ([]byte, error) {
	pairs := make([]detailPair, 0, len(m.keys))
	for _, k := range m.keys {
		pairs = append(pairs, detailPair{Key: k, Value: m.values[k]})
	}
	return json.Marshal(pairs)
}

func (m *DetailMap) UnmarshalJSON(data []byte) error {
	var pairs []detailPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	m.keys = nil
	m.values = make(map[string]string, len(pairs))
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return nil
}

type detailPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
