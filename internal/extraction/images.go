package extraction

import (
	"bytes"
	"image/jpeg"
)

// maxEmbeddedImages caps how many raster candidates are decoded per
// document. Marketing decks occasionally embed hundreds of thumbnails and
// the logo auditor only needs the plausible logo carriers.
const maxEmbeddedImages = 64

var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
)

// scanEmbeddedImages recovers DCT-encoded (JPEG) images straight from the
// raw byte stream. PDF image XObjects with DCTDecode filters store the JPEG
// payload verbatim, so marker scanning finds them without filter support.
// Page attribution is not recoverable this way; images report page 0.
func scanEmbeddedImages(pdfBytes []byte) []EmbeddedImage {
	var images []EmbeddedImage
	offset := 0
	for len(images) < maxEmbeddedImages {
		start := bytes.Index(pdfBytes[offset:], jpegSOI)
		if start < 0 {
			break
		}
		start += offset

		end := bytes.Index(pdfBytes[start:], jpegEOI)
		if end < 0 {
			break
		}
		end += start + len(jpegEOI)

		img, err := jpeg.Decode(bytes.NewReader(pdfBytes[start:end]))
		if err == nil {
			images = append(images, EmbeddedImage{Page: 0, Image: img})
		}
		offset = end
	}
	return images
}
