package parser

import (
	"github.com/tranvu/amazon-product-export/internal/models"
)

type Parser interface {
	ParseProductPage(html string, asin string, url string) (*models.ProductRecord, error)
}
