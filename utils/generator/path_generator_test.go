package generator

import (
	"testing"
	"time"
)

func TestPathGenerator_GenerateOriginalKey(t *testing.T) {
	pg := NewPathGenerator()
	uploadTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		folder   string
		publicID string
		ext      string
		want     string
	}{
		{
			name:     "jpg file",
			folder:   "photos",
			publicID: "abc-123",
			ext:      ".jpg",
			want:     "photos/2024/01/15/abc-123.jpg",
		},
		{
			name:     "ext without dot",
			folder:   "/photos/",
			publicID: "abc-123",
			ext:      "png",
			want:     "photos/2024/01/15/abc-123.png",
		},
		{
			name:     "jpeg normalized",
			folder:   "",
			publicID: "x",
			ext:      "JPEG",
			want:     "photos/2024/01/15/x.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pg.GenerateOriginalKey(tt.folder, tt.publicID, tt.ext, uploadTime)
			if got != tt.want {
				t.Errorf("GenerateOriginalKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathGenerator_GenerateVariantKey(t *testing.T) {
	pg := NewPathGenerator()

	tests := []struct {
		name    string
		key     string
		segment string
		ext     string
		want    string
	}{
		{
			name:    "format change",
			key:     "photos/2024/01/15/abc.jpg",
			segment: "w_300-h_200-c_fill",
			ext:     "webp",
			want:    "transformed/w_300-h_200-c_fill/photos/2024/01/15/abc.webp",
		},
		{
			name:    "keep original ext",
			key:     "photos/2024/01/15/abc.png",
			segment: "e_grayscale",
			ext:     "",
			want:    "transformed/e_grayscale/photos/2024/01/15/abc.png",
		},
		{
			name:    "empty segment",
			key:     "photos/2024/01/15/abc.png",
			segment: "",
			ext:     "",
			want:    "transformed/original/photos/2024/01/15/abc.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pg.GenerateVariantKey(tt.key, tt.segment, tt.ext)
			if got != tt.want {
				t.Errorf("GenerateVariantKey() = %q, want %q", got, tt.want)
			}
			if again := pg.GenerateVariantKey(tt.key, tt.segment, tt.ext); again != got {
				t.Errorf("GenerateVariantKey() not deterministic: %q vs %q", got, again)
			}
		})
	}
}

func TestPathGenerator_GenerateQRKey(t *testing.T) {
	pg := NewPathGenerator()

	if got := pg.GenerateQRKey(12, 0); got != "qr/photo_12.png" {
		t.Errorf("GenerateQRKey(12, 0) = %q", got)
	}
	if got := pg.GenerateQRKey(12, 5); got != "qr/photo_12_url_5.png" {
		t.Errorf("GenerateQRKey(12, 5) = %q", got)
	}
}

func TestPathGenerator_ParseKindFromKey(t *testing.T) {
	pg := NewPathGenerator()

	tests := map[string]string{
		"photos/2024/01/15/abc.jpg":                 "original",
		"transformed/w_300/photos/2024/01/15/a.jpg": "transform",
		"qr/photo_1.png":                            "qr",
	}
	for key, want := range tests {
		if got := pg.ParseKindFromKey(key); got != want {
			t.Errorf("ParseKindFromKey(%q) = %q, want %q", key, got, want)
		}
	}
}
