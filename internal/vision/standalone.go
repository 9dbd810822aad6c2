package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// EmbedStandaloneImage detects the highest-confidence face in an
// arbitrary uploaded photo and extracts its embedding, for the admin
// API's person search endpoint (no live frame pipeline involved).
func EmbedStandaloneImage(det *Detector, emb *Embedder, imageData []byte) ([]float32, error) {
	img, err := jpeg.Decode(bytes.NewReader(imageData))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	detW, detH := det.InputSize()
	detInput := PreprocessForDetection(img, detW, detH)
	detections, err := det.Detect(detInput, origW, origH)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	if len(detections) == 0 {
		return nil, fmt.Errorf("no face detected in image")
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}

	faceCrop := CropFace(img, best.BBox)
	if faceCrop == nil {
		return nil, fmt.Errorf("failed to crop face")
	}

	embW, embH := emb.InputSize()
	embInput := PreprocessForEmbedding(faceCrop, embW, embH)
	return emb.Extract(embInput)
}
