package htmltext

import (
	"errors"
	"testing"
	"testing/iotest"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Red bike for sale", "Red bike for sale"},
		{"empty", "", ""},
		{"inline tags", "Red <b>bike</b> for <i>sale</i>", "Red bike for sale"},
		{"paragraphs", "<p>first</p><p>second</p>", "firstsecond"},
		{"entities", "Caf&eacute; &amp; bar", "Café & bar"},
		{"comment", "before<!-- hidden -->after", "beforeafter"},
		{"script body", "a <script>alert('x')</script>b", "a b"},
		{"style body", "<style>p { color: red }</style>text", "text"},
		{"attributes", `<a href="http://example.com">link</a>`, "link"},
		{"preserves spacing", "Title Description tag1 tag2", "Title Description tag1 tag2"},
		{"self closing", "line<br/>break", "linebreak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Strip(tt.input)
			if err != nil {
				t.Fatalf("Strip() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripper_Strip(t *testing.T) {
	got, err := Stripper{}.Strip("<h1>Title</h1> body")
	if err != nil {
		t.Fatalf("Strip() error = %v", err)
	}
	if got != "Title body" {
		t.Errorf("Strip() = %q, want 'Title body'", got)
	}
}

func TestStripReader_ReadError(t *testing.T) {
	readErr := errors.New("disk gone")

	got, err := StripReader(iotest.ErrReader(readErr))
	if err == nil {
		t.Fatal("Expected error from failing reader")
	}
	if got != "" {
		t.Errorf("Expected empty result on error, got %q", got)
	}

	var stripErr *StripError
	if !errors.As(err, &stripErr) {
		t.Fatalf("Expected *StripError, got %T", err)
	}
	if !errors.Is(err, readErr) {
		t.Errorf("Expected error to wrap %v, got %v", readErr, err)
	}
}
