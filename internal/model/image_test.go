package model

import (
	"encoding/base64"
	"errors"
	"testing"
)

// 1x1 transparent PNG
var pixelPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func TestParseDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pixelPNG)
	img, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Fatalf("expected image/png, got %s", img.MIMEType)
	}
	if img.DataURI() != uri {
		t.Fatal("round trip through DataURI changed the payload")
	}
	if img.Extension() != ".png" {
		t.Fatalf("expected .png extension, got %q", img.Extension())
	}
}

func TestParseDataURIRejects(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"no scheme", "image/png;base64,AAAA", ErrInvalidDataURI},
		{"not base64", "data:image/png,hello", ErrInvalidDataURI},
		{"bad payload", "data:image/png;base64,%%%", ErrInvalidDataURI},
		{"empty", "data:image/png;base64,", ErrEmptyImage},
		{"text payload", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text")), ErrUnsupportedImage},
		{"svg", "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"><rect width="1" height="1"/></svg>`)), ErrUnsupportedImage},
		{"gif", "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7", ErrUnsupportedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDataURI(tt.uri); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
