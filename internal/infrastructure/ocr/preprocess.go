package ocr

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	maxRecognitionWidth  = 2400
	maxRecognitionHeight = 3200
	binarizeThreshold    = 128
)

// preprocessForRecognition normalizes a scan for the handwriting pass:
// bounded size, grayscale, sharpened, then binarized. Recognition quality
// on pen strokes is much better on a clean black/white bitmap than on the
// raw photo.
func preprocessForRecognition(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() > maxRecognitionWidth || b.Dy() > maxRecognitionHeight {
		src = imaging.Fit(src, maxRecognitionWidth, maxRecognitionHeight, imaging.Lanczos)
	}
	gray := imaging.Grayscale(src)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 1.0)
	return binarize(gray, binarizeThreshold)
}

func binarize(src *image.NRGBA, threshold uint8) image.Image {
	b := src.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Grayscale input: R == G == B.
			v := uint8(0)
			if src.Pix[src.PixOffset(x, y)] >= threshold {
				v = 255
			}
			out.Pix[out.PixOffset(x, y)] = v
		}
	}
	return out
}

// preprocessFile reads an image, cleans it up and writes the result next
// to tmpDir as a PNG tesseract can consume.
func preprocessFile(srcPath, tmpDir string) (string, error) {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	cleaned := preprocessForRecognition(img)
	out := filepath.Join(tmpDir, "preprocessed.png")
	if err := imaging.Save(cleaned, out); err != nil {
		return "", fmt.Errorf("save preprocessed image: %w", err)
	}
	return out, nil
}
