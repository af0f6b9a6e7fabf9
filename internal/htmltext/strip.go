// Package htmltext reduces HTML fragments to their plain text content.
package htmltext

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripError reports that the input could not be read while stripping markup.
type StripError struct {
	Err error
}

func (e *StripError) Error() string {
	return fmt.Sprintf("strip html: %v", e.Err)
}

func (e *StripError) Unwrap() error {
	return e.Err
}

// Stripper removes HTML markup. The zero value is ready to use.
type Stripper struct{}

// Strip returns the text content of s.
func (Stripper) Strip(s string) (string, error) {
	return Strip(s)
}

// Strip returns the text content of s with tags, comments and
// script/style bodies removed and entities decoded.
func Strip(s string) (string, error) {
	return StripReader(strings.NewReader(s))
}

// StripReader streams r through the HTML tokenizer and reassembles the text tokens.
func StripReader(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)

	var sb strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			err := z.Err()
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			return "", &StripError{Err: err}

		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}

		case html.StartTagToken:
			if isRawText(z) {
				skip++
			}

		case html.EndTagToken:
			if skip > 0 && isRawText(z) {
				skip--
			}
		}
	}
}

// isRawText reports whether the current tag holds non-content text.
func isRawText(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}
