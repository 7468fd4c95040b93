package validation

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
	_ "golang.org/x/image/webp"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// PreparedImage is a validated upload. Original is hashed for cache keys
// and stored; Vision is what the vision providers receive.
type PreparedImage struct {
	Original       []byte
	MIMEType       string
	Vision         []byte
	VisionMIMEType string
	Metadata       models.ImageMetadata
}

// ImageLimits bounds accepted uploads.
type ImageLimits struct {
	MaxBytes     int64
	MaxDimension int
}

// DecodeImagePayload accepts raw base64 or a data URL.
func DecodeImagePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errors.NewValidationError("image is required", "IMAGE_REQUIRED", "Send the outfit photo as base64 or a data URL in the image field.")
	}

	if strings.HasPrefix(payload, "data:") {
		_, encoded, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, errors.NewValidationError("malformed data URL", "IMAGE_MALFORMED", "Use the form data:image/jpeg;base64,<data>.")
		}
		payload = encoded
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding.
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, errors.NewValidationError("image is not valid base64", "IMAGE_MALFORMED", "Encode the photo with standard base64.")
		}
	}
	return data, nil
}

// PrepareImage validates size and type by content sniffing, records the
// image metadata and produces a vision-ready copy that is downscaled to
// MaxDimension and re-encoded as JPEG when needed.
func PrepareImage(data []byte, limits ImageLimits) (*PreparedImage, error) {
	if len(data) == 0 {
		return nil, errors.NewValidationError("image is empty", "IMAGE_EMPTY", "Upload a non-empty photo.")
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, errors.NewValidationError(
			fmt.Sprintf("image is %d bytes, the limit is %d", len(data), limits.MaxBytes),
			"IMAGE_TOO_LARGE", "Compress or resize the photo before uploading.")
	}

	mime := mimetype.Detect(data)
	contentType, _, _ := strings.Cut(mime.String(), ";")
	if !allowedImageTypes[contentType] {
		return nil, errors.NewValidationError(
			fmt.Sprintf("unsupported image type %s", contentType),
			"IMAGE_UNSUPPORTED_TYPE", "Upload a JPEG, PNG, WebP or GIF photo.")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.NewValidationError("image could not be decoded", "IMAGE_CORRUPT", "Upload an uncorrupted photo.")
	}

	bounds := img.Bounds()
	prepared := &PreparedImage{
		Original:       data,
		MIMEType:       contentType,
		Vision:         data,
		VisionMIMEType: contentType,
		Metadata: models.ImageMetadata{
			Size:   int64(len(data)),
			Format: strings.TrimPrefix(contentType, "image/"),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		},
	}

	tooLarge := limits.MaxDimension > 0 && (bounds.Dx() > limits.MaxDimension || bounds.Dy() > limits.MaxDimension)
	if !tooLarge && contentType != "image/gif" {
		return prepared, nil
	}

	if tooLarge {
		img = imaging.Fit(img, limits.MaxDimension, limits.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, errors.NewInternalError("failed to re-encode image", err)
	}
	prepared.Vision = buf.Bytes()
	prepared.VisionMIMEType = "image/jpeg"

	return prepared, nil
}
