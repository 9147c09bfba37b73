package query

import (
	"sort"
	"strconv"
	"strings"
)

// NumberSize is a page-based page value.
type NumberSize struct {
	Number int
	Size   int
}

// OffsetLimit is an offset-based page value.
type OffsetLimit struct {
	Offset int
	Limit  int
}

// Cursor is a cursor-based page value.
type Cursor struct {
	Cursor string
	Size   int
}

// NumberSizePage encodes page[number] and page[size].
func NumberSizePage(page any) []string {
	switch p := page.(type) {
	case NumberSize:
		return pagePairs("number", positive(p.Number), "size", positive(p.Size))
	case *NumberSize:
		if p == nil {
			return nil
		}
		return NumberSizePage(*p)
	default:
		return pageFallback(page)
	}
}

// OffsetLimitPage encodes page[offset] and page[limit]. A zero offset is
// written out; a zero limit is not.
func OffsetLimitPage(page any) []string {
	switch p := page.(type) {
	case OffsetLimit:
		offset := ""
		if p.Offset >= 0 {
			offset = strconv.Itoa(p.Offset)
		}
		return pagePairs("offset", offset, "limit", positive(p.Limit))
	case *OffsetLimit:
		if p == nil {
			return nil
		}
		return OffsetLimitPage(*p)
	default:
		return pageFallback(page)
	}
}

// CursorPage encodes page[cursor] and page[size].
func CursorPage(page any) []string {
	switch p := page.(type) {
	case Cursor:
		return pagePairs("cursor", p.Cursor, "size", positive(p.Size))
	case *Cursor:
		if p == nil {
			return nil
		}
		return CursorPage(*p)
	default:
		return pageFallback(page)
	}
}

var pageStyles = map[string]PageFunc{
	"number": NumberSizePage,
	"offset": OffsetLimitPage,
	"cursor": CursorPage,
}

// PageStyle returns a built-in page hook by name. The empty name and
// "generic" select the generic rule (a nil hook).
func PageStyle(name string) (PageFunc, bool) {
	switch strings.ToLower(name) {
	case "", "generic":
		return nil, true
	}
	fn, ok := pageStyles[strings.ToLower(name)]
	return fn, ok
}

// PageStyles lists the names accepted by PageStyle.
func PageStyles() []string {
	names := []string{"generic"}
	for name := range pageStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pagePairs encodes page[key]=value for each non-empty value.
func pagePairs(kv ...string) []string {
	var pairs []string
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, Encode(ParamPage, map[string]string{kv[i]: kv[i+1]})...)
	}
	return pairs
}

// pageFallback handles untyped values such as map[string]any from the
// command line.
func pageFallback(page any) []string {
	return Encode(ParamPage, page)
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
