package export

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tranvu/amazon-product-export/internal/models"
	"github.com/tranvu/amazon-product-export/internal/parser"
)

const sheetName = "Amazon Scrape Results"

// baseHeaders is the fixed column order; image columns are appended up to
// the widest image set in the batch. Single and batch exports share this
// list.
var baseHeaders = []string{
	"Category", "Sub-category", "ASIN", "Title", "Link", "Price",
	"Flavor Name", "Size", "Color", "Style", "Unknown", "Price Listing",
	"Free Deli Day", "Prime Deli Day", "Is Prime",
	"Stock Status", "Ships From", "Sold By", "Description", "UPC", "Brand", "Manufacturer", "Ingredients",
	"Weight", "Length", "Width", "Height",
	"Item Form", "Product Benefits", "Scent", "Material Type", "Skin Type", "Item Volume", "Age Range", "Special Feature",
	"Publisher", "Language", "Paperback", "Hardcover", "ISBN-10", "ISBN-13",
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// BuildWorkbook projects records into one spreadsheet: a main row per
// record, then one extra row per variant ASIN carrying only the
// identifier and that variant's images. Records are read, never mutated.
func BuildWorkbook(records []*models.ProductRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	maxImages := maxImageCount(records)

	headers := make([]interface{}, 0, len(baseHeaders)+maxImages)
	for _, h := range baseHeaders {
		headers = append(headers, h)
	}
	for i := 1; i <= maxImages; i++ {
		headers = append(headers, fmt.Sprintf("Image %d", i))
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0000FF", Underline: "single"},
	})
	if err != nil {
		return nil, err
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, err
	}

	rowIdx := 2
	for _, rec := range records {
		if err := writeMainRow(f, rec, rowIdx, maxImages, linkStyle, priceStyle); err != nil {
			return nil, err
		}
		rowIdx++

		for _, variantASIN := range parser.VariantASINs(rec.VariantsText, rec.MainImageASIN) {
			if err := writeVariantRow(f, rec, variantASIN, rowIdx, maxImages); err != nil {
				return nil, err
			}
			rowIdx++
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(sheetName, "A", lastCol, 20)

	return f, nil
}

// SaveXLSX renders records and writes the workbook to path.
func SaveXLSX(records []*models.ProductRecord, path string) error {
	f, err := BuildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeMainRow(f *excelize.File, rec *models.ProductRecord, rowIdx, maxImages, linkStyle, priceStyle int) error {
	sel := parser.ParseVariantsText(rec.VariantsText)
	length, width, height := parser.ResolveDimensions(rec)

	description := rec.Description
	if description == "" {
		description = rec.BookDescription
	}

	// The row is keyed by the image-block ASIN so it always matches the
	// variant the captured images belong to. Variant rows exclude the same
	// identifier, so the two never collide.
	asin := rec.MainImageASIN
	if asin == "" {
		asin = rec.ASIN
	}
	link := ""
	if asin != "" {
		link = "https://www.amazon.com/dp/" + asin
	}

	row := []interface{}{
		rec.Category,
		rec.SubCategory,
		asin,
		rec.Title,
		link,
		priceCell(rec.Price),
		sel.FlavorName,
		sel.Size,
		sel.Color,
		sel.Style,
		sel.Unknown,
		rec.Price,
		rec.PrimaryDeliveryInfo,
		rec.SecondaryDeliveryInfo,
		rec.PrimeIndicator,
		rec.StockStatus,
		rec.ShipsFrom,
		rec.SoldBy,
		description,
		parser.Resolve(rec, parser.AttrUPC),
		parser.Resolve(rec, parser.AttrBrand),
		parser.Resolve(rec, parser.AttrManufacturer),
		rec.Ingredients,
		parser.Resolve(rec, parser.AttrWeight),
		length,
		width,
		height,
		parser.Resolve(rec, parser.AttrItemForm),
		parser.Resolve(rec, parser.AttrBenefits),
		parser.Resolve(rec, parser.AttrScent),
		parser.Resolve(rec, parser.AttrMaterialType),
		parser.Resolve(rec, parser.AttrSkinType),
		parser.Resolve(rec, parser.AttrItemVolume),
		parser.Resolve(rec, parser.AttrAgeRange),
		parser.Resolve(rec, parser.AttrSpecialFeature),
		parser.Resolve(rec, parser.AttrPublisher),
		parser.Resolve(rec, parser.AttrLanguage),
		parser.Resolve(rec, parser.AttrPaperback),
		parser.Resolve(rec, parser.AttrHardcover),
		parser.Resolve(rec, parser.AttrISBN10),
		parser.Resolve(rec, parser.AttrISBN13),
	}

	images := append([]string{}, rec.MainImages...)
	images = append(images, rec.HiResImagesByASIN[rec.MainImageASIN]...)
	row = appendImageCells(row, images, maxImages)

	cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowIdx, err)
	}

	linkCell, _ := excelize.CoordinatesToCellName(5, rowIdx)
	if link != "" {
		if err := f.SetCellHyperLink(sheetName, linkCell, link, "External"); err != nil {
			return err
		}
		f.SetCellStyle(sheetName, linkCell, linkCell, linkStyle)
	}

	priceCol, _ := excelize.CoordinatesToCellName(6, rowIdx)
	f.SetCellStyle(sheetName, priceCol, priceCol, priceStyle)

	return nil
}

func writeVariantRow(f *excelize.File, rec *models.ProductRecord, variantASIN string, rowIdx, maxImages int) error {
	row := make([]interface{}, len(baseHeaders))
	for i := range row {
		row[i] = ""
	}
	row[2] = variantASIN // ASIN column

	row = appendImageCells(row, rec.HiResImagesByASIN[variantASIN], maxImages)

	cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("failed to write variant row %d: %w", rowIdx, err)
	}
	return nil
}

func appendImageCells(row []interface{}, images []string, maxImages int) []interface{} {
	for i := 0; i < maxImages; i++ {
		if i < len(images) {
			row = append(row, images[i])
		} else {
			row = append(row, "")
		}
	}
	return row
}

// priceCell strips currency formatting to a number; unparseable prices
// stay as stripped text so the cell is never silently empty.
func priceCell(price string) interface{} {
	stripped := nonNumeric.ReplaceAllString(price, "")
	if v, err := strconv.ParseFloat(stripped, 64); err == nil {
		return v
	}
	return stripped
}

func maxImageCount(records []*models.ProductRecord) int {
	max := 0
	for _, rec := range records {
		// The main row concatenates both image sets.
		if n := len(rec.MainImages) + len(rec.HiResImagesByASIN[rec.MainImageASIN]); n > max {
			max = n
		}
		for _, images := range rec.HiResImagesByASIN {
			if len(images) > max {
				max = len(images)
			}
		}
	}
	return max
}
