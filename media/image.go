// Package media prepares user-supplied images for multimodal prompts.
// Uploads arrive in whatever format the user had on disk; upstream APIs
// are strict about MIME types and payload size, so everything is
// normalized to baseline JPEG before it enters a prompt.
package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/BaSui01/socialforge/types"
)

const jpegQuality = 90

// Prepare decodes an uploaded image and re-encodes it as JPEG. Images
// with an alpha channel are flattened onto a white background first,
// since JPEG has no transparency and the zero value would render black.
// Unrecognized formats are a configuration failure.
func Prepare(data []byte) (types.ImagePayload, error) {
	if len(data) == 0 {
		return types.ImagePayload{}, types.NewError(types.ErrUnsupportedImage, "empty image payload")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return types.ImagePayload{}, types.NewError(types.ErrUnsupportedImage,
			"unsupported image format (want jpeg, png, or gif)").WithCause(err)
	}

	flat := flatten(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return types.ImagePayload{}, fmt.Errorf("encode %s image as jpeg: %w", format, err)
	}
	return types.ImagePayload{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// flatten composes the image over an opaque white canvas.
func flatten(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Over)
	return canvas
}

// Digest returns a stable hex digest of the normalized payload, used as
// the analysis cache key.
func Digest(img types.ImagePayload) string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}
