package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMainImages(t *testing.T) {
	html := `<script>
		P.when('A').register("ImageBlockATF", function(A){
			var data = {"colorImages": {"initial": [
				{"hiRes":"https://m.media-amazon.com/images/I/71abc.jpg","thumb":"https://m.media-amazon.com/images/I/41abc.jpg"},
				{"hiRes":"https://m.media-amazon.com/images/I/81def.jpg"},
				{"hiRes":"https://m.media-amazon.com/images/I/71abc.jpg"}
			]}};
		});
	</script>`

	images := extractMainImages(mustDoc(t, html))

	assert.Equal(t, []string{
		"https://m.media-amazon.com/images/I/71abc.jpg",
		"https://m.media-amazon.com/images/I/81def.jpg",
	}, images)
}

func TestExtractMainImagesNoScript(t *testing.T) {
	images := extractMainImages(mustDoc(t, `<div id="dp-container"></div>`))

	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestExtractMainImagesIgnoresForeignHosts(t *testing.T) {
	html := `<script>
		ImageBlockATF
		var data = {"hiRes":"https://evil.example.com/images/I/x.jpg"};
	</script>`

	images := extractMainImages(mustDoc(t, html))
	assert.Empty(t, images)
}

func TestExtractVariantImages(t *testing.T) {
	html := `<script>
		var obj = jQuery.parseJSON('{"colorImages":{"Red":[{"hiRes":"https://m.media-amazon.com/images/I/red1.jpg"},{"hiRes":"https://m.media-amazon.com/images/I/red2.jpg"},{"hiRes":"https://m.media-amazon.com/images/I/red1.jpg"}],"Blue":[{"hiRes":"https://m.media-amazon.com/images/I/blue1.jpg"},{"hiRes":"https://cdn.example.com/blue2.jpg"}],"Green":[{"hiRes":"https://m.media-amazon.com/images/I/green1.jpg"}]},"colorToAsin":{"Red":{"asin":"B0COLORRED"},"Blue":{"asin":"B0COLORBLU"}}}');
	</script>`

	hiRes := extractVariantImages(mustDoc(t, html))

	assert.Equal(t, []string{
		"https://m.media-amazon.com/images/I/red1.jpg",
		"https://m.media-amazon.com/images/I/red2.jpg",
	}, hiRes["B0COLORRED"])
	assert.Equal(t, []string{"https://m.media-amazon.com/images/I/blue1.jpg"}, hiRes["B0COLORBLU"])
	// Green has no asin mapping and must not appear under any key.
	assert.Len(t, hiRes, 2)
}

func TestExtractVariantImagesEscapedQuotes(t *testing.T) {
	html := `<script>
		var obj = jQuery.parseJSON('{"colorImages":{"Kids\' Pack":[{"hiRes":"https://m.media-amazon.com/images/I/kids1.jpg"}]},"colorToAsin":{"Kids\' Pack":{"asin":"B0KIDSPACK"}}}');
	</script>`

	hiRes := extractVariantImages(mustDoc(t, html))

	assert.Equal(t, []string{"https://m.media-amazon.com/images/I/kids1.jpg"}, hiRes["B0KIDSPACK"])
}

func TestExtractVariantImagesMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "no script", html: `<div></div>`},
		{name: "broken json", html: `<script>var obj = jQuery.parseJSON('{"colorImages":');</script>`},
		{name: "wrong shape", html: `<script>var obj = jQuery.parseJSON('[1,2,3]');</script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hiRes := extractVariantImages(mustDoc(t, tt.html))
			assert.NotNil(t, hiRes)
			assert.Empty(t, hiRes)
		})
	}
}

func TestExtractMainImageASIN(t *testing.T) {
	html := `<div id="imageBlock_feature_div" data-csa-c-asin="B0IMAGEKEY"></div>`
	assert.Equal(t, "B0IMAGEKEY", extractMainImageASIN(mustDoc(t, html), "B0FALLBACK"))

	assert.Equal(t, "B0FALLBACK", extractMainImageASIN(mustDoc(t, `<div></div>`), "B0FALLBACK"))
}
