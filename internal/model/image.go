package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrInvalidDataURI   = errors.New("invalid data URI")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyImage       = errors.New("empty image")
)

// supportedImageTypes is what the model gateway accepts as inline image data.
var supportedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/heic", "image/heif"}

// Image is an in-memory image with its declared MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// NewImage sniffs data and returns an Image if it is a supported type.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	mt := mimetype.Detect(data)
	for _, supported := range supportedImageTypes {
		if mt.Is(supported) {
			return Image{MIMEType: supported, Data: data}, nil
		}
	}
	return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
}

// ParseDataURI decodes a base64 data URI. The declared type is ignored in
// favour of the sniffed content.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return Image{}, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return NewImage(data)
}

func (i Image) IsEmpty() bool {
	return len(i.Data) == 0
}

func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Extension returns the file extension for the image type, including the dot.
func (i Image) Extension() string {
	if mt := mimetype.Lookup(i.MIMEType); mt != nil {
		return mt.Extension()
	}
	return ""
}
