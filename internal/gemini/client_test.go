package gemini

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-playground/validator/v10"
)

func testClient() *Client {
	return &Client{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: validator.New(),
	}
}

func TestDecodeAnalysis(t *testing.T) {
	t.Parallel()

	c := testClient()

	testCases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid response",
			raw: `{"name": "Benny's", "category": "burger", "rating": 8, "price": 14.5,
				"is_burger": true, "comment": "great", "items": ["cheeseburger"]}`,
		},
		{
			name: "valid with surrounding whitespace",
			raw: `
				{"name": "Ramen-ya", "category": "other", "rating": 9, "price": 12,
				"is_burger": false, "comment": "good broth", "items": []}
			`,
		},
		{
			name:    "not json",
			raw:     "I could not analyze this image, sorry!",
			wantErr: true,
		},
		{
			name:    "json array instead of object",
			raw:     `[{"name": "Benny's"}]`,
			wantErr: true,
		},
		{
			name: "invalid category enum",
			raw: `{"name": "Benny's", "category": "pizza", "rating": 8, "price": 14.5,
				"is_burger": true, "comment": "great", "items": []}`,
			wantErr: true,
		},
		{
			name: "rating out of range",
			raw: `{"name": "Benny's", "category": "burger", "rating": 11, "price": 14.5,
				"is_burger": true, "comment": "great", "items": []}`,
			wantErr: true,
		},
		{
			name: "rating below range",
			raw: `{"name": "Benny's", "category": "burger", "rating": 0, "price": 14.5,
				"is_burger": true, "comment": "great", "items": []}`,
			wantErr: true,
		},
		{
			name: "missing name",
			raw: `{"category": "burger", "rating": 8, "price": 14.5,
				"is_burger": true, "comment": "great", "items": []}`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			analysis, err := c.decodeAnalysis(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", analysis)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if analysis.Name == "" {
				t.Error("expected populated analysis")
			}
		})
	}
}

func TestMimeForPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path     string
		expected string
	}{
		{path: "assets/images/abc.jpg", expected: "image/jpeg"},
		{path: "assets/images/abc.jpeg", expected: "image/jpeg"},
		{path: "assets/images/abc.png", expected: "image/png"},
		{path: "assets/images/abc", expected: "image/jpeg"},
		{path: "assets/images/abc.txt", expected: "image/jpeg"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			if got := mimeForPath(tc.path); got != tc.expected {
				t.Errorf("mimeForPath(%q) = %q, expected %q", tc.path, got, tc.expected)
			}
		})
	}
}
