package query

import (
	"math"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func TestSerializer_Encode(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "empty",
			q:    Query{},
			want: "",
		},
		{
			name: "sort",
			q:    Query{Sort: []SortRule{Ascend("name"), Descend("age")}},
			want: "?sort=name,-age",
		},
		{
			name: "include tree",
			q:    Query{Include: Include{"country": Include{"citizens": nil}}},
			want: "?include=country,country.citizens",
		},
		{
			name: "include siblings sorted",
			q:    Query{Include: Include{"b": nil, "a": Include{"y": nil, "x": nil}}},
			want: "?include=a,a.x,a.y,b",
		},
		{
			name: "filter object",
			q:    Query{Filter: map[string]any{"name": "Oslo", "size": map[string]any{"gt": 10}}},
			want: "?filter[name]=Oslo&filter[size][gt]=10",
		},
		{
			name: "fields",
			q:    Query{Fields: map[string][]string{"countries": {"name", "capital"}, "cities": {"name"}}},
			want: "?fields[cities]=name&fields[countries]=name,capital",
		},
		{
			name: "params",
			q: Query{Params: map[string]any{
				"flag":   true,
				"off":    false,
				"empty":  "",
				"nil":    nil,
				"nan":    math.NaN(),
				"inf":    math.Inf(1),
				"limit":  25,
				"ratio":  0.5,
				"tags":   []string{"a", "b"},
				"none":   []string{},
				"search": "new york",
			}},
			want: "?flag&limit=25&ratio=0.5&search=new+york&tags=a,b",
		},
		{
			name: "reserved params ignored",
			q:    Query{Params: map[string]any{"include": "x", "sort": "y"}},
			want: "",
		},
		{
			name: "order",
			q: Query{
				Page:    map[string]any{"size": 10},
				Sort:    []SortRule{Ascend("name")},
				Filter:  map[string]any{"q": "x"},
				Fields:  map[string][]string{"a": {"b"}},
				Include: Include{"c": nil},
				Params:  map[string]any{"extra": "1"},
			},
			want: "?page[size]=10&sort=name&filter[q]=x&fields[a]=b&include=c&extra=1",
		},
		{
			name: "escaping",
			q:    Query{Filter: map[string]any{"a&b": "c=d"}, Params: map[string]any{"list": []any{"x,y", 1, nil}}},
			want: "?filter[a%26b]=c%3Dd&list=x%2Cy,1",
		},
		{
			name: "unsupported values dropped",
			q:    Query{Params: map[string]any{"fn": func() {}, "ch": make(chan int), "m": map[int]string{1: "a"}}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Serializer{}).Encode(tt.q); got != tt.want {
				t.Errorf("Encode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializer_PageHook(t *testing.T) {
	var got any
	s := Serializer{PageQuery: func(page any) []string {
		got = page
		return []string{"p=7"}
	}}

	if out := s.Encode(Query{Page: 7, Sort: []SortRule{Descend("id")}}); out != "?p=7&sort=-id" {
		t.Errorf("Encode = %q", out)
	}
	if got != 7 {
		t.Errorf("hook received %v, want 7", got)
	}
}

func TestSerializer_Apply(t *testing.T) {
	base, _ := url.Parse("https://api.example.com/countries?stale=1")
	u := Serializer{}.Apply(base, Query{Include: Include{"capital": nil}})

	if u.String() != "https://api.example.com/countries?include=capital" {
		t.Errorf("Apply = %s", u)
	}
	if base.RawQuery != "stale=1" {
		t.Error("Apply must not modify its input")
	}
}

func TestSerializer_CyclicInclude(t *testing.T) {
	cyclic := Include{}
	cyclic["friend"] = cyclic

	done := make(chan string, 1)
	go func() { done <- Serializer{}.Encode(Query{Include: cyclic}) }()

	select {
	case got := <-done:
		if got != "?include=friend" {
			t.Errorf("Encode = %q, want ?include=friend", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Encode did not return for a cyclic include tree")
	}
}

func TestPageStyles(t *testing.T) {
	tests := []struct {
		name string
		fn   PageFunc
		page any
		want []string
	}{
		{"number", NumberSizePage, NumberSize{Number: 2, Size: 20}, []string{"page[number]=2", "page[size]=20"}},
		{"number pointer", NumberSizePage, &NumberSize{Size: 5}, []string{"page[size]=5"}},
		{"offset", OffsetLimitPage, OffsetLimit{Offset: 0, Limit: 10}, []string{"page[offset]=0", "page[limit]=10"}},
		{"cursor", CursorPage, Cursor{Cursor: "abc=", Size: 3}, []string{"page[cursor]=abc%3D", "page[size]=3"}},
		{"cursor empty", CursorPage, Cursor{}, nil},
		{"fallback map", NumberSizePage, map[string]any{"number": "4"}, []string{"page[number]=4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.page); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageStyle(t *testing.T) {
	for _, name := range PageStyles() {
		if _, ok := PageStyle(name); !ok {
			t.Errorf("PageStyle(%q) not found", name)
		}
	}
	if fn, ok := PageStyle(""); !ok || fn != nil {
		t.Error("empty style should select the generic rule")
	}
	if _, ok := PageStyle("keyset"); ok {
		t.Error("unknown style should not be found")
	}
}
