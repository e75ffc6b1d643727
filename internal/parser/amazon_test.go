package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvu/amazon-product-export/internal/models"
)

const fullProductPage = `<!DOCTYPE html>
<html>
<body>
	<div id="wayfinding-breadcrumbs_feature_div">
		<ul class="a-unordered-list">
			<li><a>Grocery & Gourmet Food</a></li>
			<li class="a-breadcrumb-divider">›</li>
			<li><a>Protein Powders</a></li>
		</ul>
	</div>
	<span id="productTitle"> Acme Whey Protein Powder, Vanilla, 2 Pound </span>
	<div id="corePrice_feature_div">
		<span class="a-offscreen">$29.99</span>
	</div>
	<div id="mir-layout-DELIVERY_BLOCK-slot-PRIMARY_DELIVERY_MESSAGE_LARGE">
		<span class="a-text-bold">FREE delivery Thursday, September 4</span>
	</div>
	<div id="mir-layout-DELIVERY_BLOCK-slot-SECONDARY_DELIVERY_MESSAGE_LARGE">
		<span class="a-text-bold">Tomorrow, August 31</span>
	</div>
	<span style="color:#0064F9">Prime</span>
	<div id="availabilityInsideBuyBox_feature_div">
		<div id="availability">
			<span class="a-size-medium a-color-success">In Stock</span>
		</div>
	</div>
	<div class="offer-display-feature-text a-spacing-none"><span>Amazon.com</span></div>
	<div class="offer-display-feature-text a-spacing-none"><span>Acme Nutrition</span></div>
	<div id="feature-bullets">
		<ul>
			<li><span>24g of protein per serving</span></li>
			<li><span>Gluten free</span></li>
		</ul>
	</div>
	<div id="important-information">
		<div class="a-section content">
			<span class="a-text-bold">Ingredients</span>
			<p>Whey protein isolate, natural flavors.</p>
		</div>
	</div>
	<table class="a-normal a-spacing-micro">
		<tr>
			<td class="a-span3"><span class="a-text-bold">Brand</span></td>
			<td class="a-span9"><span class="a-size-base">Acme</span></td>
		</tr>
		<tr>
			<td class="a-span3"><span class="a-text-bold">Item Form</span></td>
			<td class="a-span9"><span class="a-size-base">Powder</span></td>
		</tr>
	</table>
	<div id="detailBulletsWrapper_feature_div">
		<ul class="a-unordered-list">
			<li><span>UPC : 012345678905</span></li>
			<li><span>Manufacturer : Acme Corp</span></li>
			<li><span>Package Dimensions : 4 x 4 x 8 inches</span></li>
			<li><span>Item Weight : 2 Pounds</span></li>
		</ul>
	</div>
	<div id="variation_flavor_name">
		<label class="a-form-label">Flavor Name:</label>
		<span class="selection">Vanilla</span>
		<ul>
			<li title="Click to select Vanilla" data-csa-c-item-id="B0FLAVORVA"></li>
			<li title="Click to select Chocolate" data-csa-c-item-id="B0FLAVORCH"></li>
		</ul>
	</div>
	<div id="imageBlock_feature_div" data-csa-c-asin="B0FLAVORVA"></div>
	<script>
		ImageBlockATF
		var data = {"hiRes":"https://m.media-amazon.com/images/I/71main.jpg"};
	</script>
</body>
</html>`

func TestParseProductPage(t *testing.T) {
	p := NewAmazonParser()

	rec, err := p.ParseProductPage(fullProductPage, "B0FLAVORVA", "https://www.amazon.com/dp/B0FLAVORVA")
	require.NoError(t, err)

	assert.Equal(t, "B0FLAVORVA", rec.ASIN)
	assert.Equal(t, "Acme Whey Protein Powder, Vanilla, 2 Pound", rec.Title)
	assert.Equal(t, "$29.99", rec.Price)
	assert.Equal(t, "Grocery & Gourmet Food", rec.Category)
	assert.Equal(t, "Protein Powders", rec.SubCategory)
	assert.Equal(t, "FREE delivery Thursday, September 4", rec.PrimaryDeliveryInfo)
	assert.Equal(t, "Tomorrow, August 31", rec.SecondaryDeliveryInfo)
	assert.Equal(t, "Prime", rec.PrimeIndicator)
	assert.Equal(t, "In Stock", rec.StockStatus)
	assert.Equal(t, "Amazon.com", rec.ShipsFrom)
	assert.Equal(t, "Acme Nutrition", rec.SoldBy)
	assert.Equal(t, "24g of protein per serving\nGluten free", rec.Description)
	assert.Equal(t, "Whey protein isolate, natural flavors.", rec.Ingredients)

	brand, _ := rec.DetailsTable.Get("Brand")
	assert.Equal(t, "Acme", brand)
	assert.Contains(t, rec.DetailsSecondary, "UPC : 012345678905")

	assert.Contains(t, rec.VariantsText, "LABEL:Flavor Name\nSELECTION:Vanilla")
	assert.Contains(t, rec.VariantsText, "Flavor: Chocolate\nASIN: B0FLAVORCH")

	assert.Equal(t, []string{"https://m.media-amazon.com/images/I/71main.jpg"}, rec.MainImages)
	assert.Equal(t, "B0FLAVORVA", rec.MainImageASIN)
	assert.False(t, rec.IsError)
}

func TestParseProductPageResolverIntegration(t *testing.T) {
	p := NewAmazonParser()

	rec, err := p.ParseProductPage(fullProductPage, "B0FLAVORVA", "https://www.amazon.com/dp/B0FLAVORVA")
	require.NoError(t, err)

	assert.Equal(t, "Acme", Resolve(rec, AttrBrand))
	assert.Equal(t, "012345678905", Resolve(rec, AttrUPC))
	assert.Equal(t, "Powder", Resolve(rec, AttrItemForm))
	assert.Equal(t, "2 Pounds", Resolve(rec, AttrWeight))

	length, width, height := ResolveDimensions(rec)
	assert.Equal(t, "4", length)
	assert.Equal(t, "4", width)
	assert.Equal(t, "8", height)

	assert.Equal(t, "no scent information found", Resolve(rec, AttrScent))
}

func TestParseProductPageSparse(t *testing.T) {
	p := NewAmazonParser()

	rec, err := p.ParseProductPage("<html><body><p>nothing here</p></body></html>", "B0EMPTYPAGE", "https://www.amazon.com/dp/B0EMPTYPAGE")
	require.NoError(t, err)

	assert.Empty(t, rec.Title)
	assert.Equal(t, models.NoSecondaryDetails, rec.DetailsSecondary)
	assert.Equal(t, models.NoVariantInfo, rec.VariantsText)
	assert.Equal(t, 0, rec.DetailsTable.Len())
	assert.NotNil(t, rec.MainImages)
	assert.Empty(t, rec.MainImages)
	assert.Equal(t, "B0EMPTYPAGE", rec.MainImageASIN)
}
