package indexer

import (
	"net/url"
	"strings"
)

// urlItem assembles a URL by appending query parameters in the order they are added.
type urlItem struct {
	base   string
	params []string
}

func newURLItem(base string) *urlItem {
	return &urlItem{base: base}
}

func (u *urlItem) addParameter(name, value string) {
	u.params = append(u.params, url.QueryEscape(name)+"="+url.QueryEscape(value))
}

func (u *urlItem) String() string {
	if len(u.params) == 0 {
		return u.base
	}

	sep := "?"
	if strings.Contains(u.base, "?") {
		sep = "&"
		if strings.HasSuffix(u.base, "?") || strings.HasSuffix(u.base, "&") {
			sep = ""
		}
	}
	return u.base + sep + strings.Join(u.params, "&")
}
