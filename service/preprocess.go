package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

// Preprocess decodes raw image bytes into the flattened model input
// tensor: shape (1, ImageSize, ImageSize, 3), float32 in [0,1], NHWC.
// Any color mode is collapsed to RGB; grayscale broadcasts to three
// channels and alpha is discarded.
func Preprocess(raw []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	// Stretch to the model square; no crop, no letterbox.
	resized := imaging.Resize(img, ImageSize, ImageSize, imaging.Lanczos)

	out := make([]float32, ImageSize*ImageSize*3)
	i := 0
	for y := 0; y < ImageSize; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < ImageSize; x++ {
			px := row[x*4:]
			out[i] = float32(px[0]) / 255.0
			out[i+1] = float32(px[1]) / 255.0
			out[i+2] = float32(px[2]) / 255.0
			i += 3
		}
	}
	return out, nil
}
