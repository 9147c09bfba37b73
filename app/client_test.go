package app_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/jsonapiclient/adapters/memory"
	"github.com/artpar/jsonapiclient/adapters/metrics"
	"github.com/artpar/jsonapiclient/app"
	"github.com/artpar/jsonapiclient/domain/decode"
	"github.com/artpar/jsonapiclient/domain/query"
	"github.com/artpar/jsonapiclient/domain/resource"
	"github.com/artpar/jsonapiclient/pkg/jsonapi"
)

func setup(t *testing.T) (*app.Client, *memory.Transport) {
	t.Helper()
	tr := memory.NewTransport()
	c, err := app.New(app.Deps{
		Transport: tr,
		Logger:    zerolog.Nop(),
		Metrics:   metrics.NewWithRegistry(prometheus.NewRegistry(), ""),
	}, app.Config{
		BaseURL:   "https://api.example.com/v1",
		PageQuery: query.NumberSizePage,
		Headers:   http.Header{"Authorization": {"Bearer t"}},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for _, s := range []resource.Schema{
		resource.Define("countries").
			Required("name", resource.String).
			ToOne("capital", "cities").
			MustBuild(),
		resource.Define("cities").
			Required("name", resource.String).
			MustBuild(),
	} {
		if err := c.RegisterSchema(s); err != nil {
			t.Fatalf("RegisterSchema error: %v", err)
		}
	}
	return c, tr
}

func country(id, name, capital string) jsonapi.Resource {
	return jsonapi.NewResource("countries", id).
		Attr("name", name).
		BelongsTo("capital", "cities", capital).
		Build()
}

func city(id, name string) jsonapi.Resource {
	return jsonapi.NewResource("cities", id).Attr("name", name).Build()
}

func TestClient_Registration(t *testing.T) {
	c, _ := setup(t)

	if _, err := c.Endpoint("countries", "countries"); err != nil {
		t.Fatalf("Endpoint error: %v", err)
	}

	t.Run("duplicate path", func(t *testing.T) {
		_, err := c.Endpoint("/countries/", "countries")
		if !errors.Is(err, app.ErrDuplicateEndpoint) {
			t.Errorf("err = %v, want ErrDuplicateEndpoint", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := c.Endpoint("planets", "planets")
		if !errors.Is(err, resource.ErrUnknownType) {
			t.Errorf("err = %v, want ErrUnknownType", err)
		}
	})

	t.Run("duplicate type", func(t *testing.T) {
		if err := c.RegisterSchema(resource.Define("cities").MustBuild()); err == nil {
			t.Error("expected duplicate type error")
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := c.Endpoint("/", "cities"); err == nil {
			t.Error("expected error for empty path")
		}
	})

	t.Run("must panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("MustEndpoint should panic")
			}
		}()
		c.MustEndpoint("countries", "countries")
	})

	t.Run("lookup", func(t *testing.T) {
		e, ok := c.Lookup("/countries")
		if !ok || e.Type() != "countries" || e.Path() != "/countries" {
			t.Errorf("Lookup = %v, %v", e, ok)
		}
		c.MustEndpoint("cities", "cities")
		if eps := c.Endpoints(); len(eps) != 2 || eps[0].Path() != "/cities" {
			t.Errorf("Endpoints = %v", eps)
		}
	})
}

func TestNew_RequiresTransport(t *testing.T) {
	if _, err := app.New(app.Deps{}, app.Config{}); err == nil {
		t.Error("expected error without transport")
	}
}

func TestEndpoint_URL(t *testing.T) {
	c, _ := setup(t)
	e := c.MustEndpoint("countries", "countries")

	got := e.URL("a b", query.Query{
		Page:    query.NumberSize{Number: 2, Size: 10},
		Sort:    []query.SortRule{query.Ascend("name"), query.Descend("age")},
		Include: query.Include{"capital": nil},
	}).String()
	want := "https://api.example.com/v1/countries/a%20b?page[number]=2&page[size]=10&sort=name,-age&include=capital"
	if got != want {
		t.Errorf("URL = %s\nwant  %s", got, want)
	}
}

func TestEndpoint_Get(t *testing.T) {
	c, tr := setup(t)
	e := c.MustEndpoint("countries", "countries")
	tr.Add("/v1/countries/1", jsonapi.NewSingleResourceDocument(country("1", "Norway", "10"), city("10", "Oslo")))

	res, err := e.Get(context.Background(), "1", query.Query{Include: query.ParseInclude("capital")})
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	capital, ok := res.One("capital")
	if !ok || capital.AttrString("name") != "Oslo" {
		t.Errorf("capital = %v, %v", capital, ok)
	}

	reqs := tr.Requests()
	if len(reqs) != 1 || reqs[0].URL != "https://api.example.com/v1/countries/1?include=capital" {
		t.Errorf("requests = %+v", reqs)
	}
	if reqs[0].Headers.Get("Authorization") != "Bearer t" {
		t.Error("configured headers should be sent")
	}
}

func TestEndpoint_GetCyclicInclude(t *testing.T) {
	tr := memory.NewTransport()
	c, err := app.New(app.Deps{Transport: tr, Logger: zerolog.Nop()}, app.Config{
		BaseURL:  "https://api.example.com",
		MaxDepth: 4,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Schemas().MustRegister(resource.Define("people").
		Required("name", resource.String).
		ToOne("friend", "people").
		MustBuild())
	e := c.MustEndpoint("people", "people")
	tr.Add("/people/1", jsonapi.NewSingleResourceDocument(
		jsonapi.NewResource("people", "1").Attr("name", "Narcissus").BelongsTo("friend", "people", "1").Build(),
	))

	cyclic := query.Include{}
	cyclic["friend"] = cyclic

	if got := e.URL("1", query.Query{Include: cyclic}).String(); got != "https://api.example.com/people/1?include=friend" {
		t.Errorf("URL = %s", got)
	}

	done := make(chan error, 1)
	go func() {
		_, err := e.Get(context.Background(), "1", query.Query{Include: cyclic})
		done <- err
	}()

	select {
	case err := <-done:
		if !decode.HasKind(err, decode.KindDepth) {
			t.Errorf("err = %v, want a depth error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Get did not return for a cyclic include tree")
	}
}

func TestEndpoint_GetInvalidID(t *testing.T) {
	c, tr := setup(t)
	e := c.MustEndpoint("countries", "countries")
	tr.Add("/v1", jsonapi.NewSingleResourceDocument(country("1", "Norway", "")))
	tr.Add("/v1/countries", jsonapi.NewSingleResourceDocument(country("1", "Norway", "")))

	for _, id := range []string{"", ".", ".."} {
		t.Run(id, func(t *testing.T) {
			_, err := e.Get(context.Background(), id, query.Query{})
			if !errors.Is(err, app.ErrInvalidID) {
				t.Errorf("Get(%q) err = %v, want ErrInvalidID", id, err)
			}
		})
	}
	if reqs := tr.Requests(); len(reqs) != 0 {
		t.Errorf("no request should be sent, got %+v", reqs)
	}

	if _, err := e.Get(context.Background(), "..x", query.Query{}); !jsonapi.IsNotFound(err) {
		t.Errorf("an id containing dots is an ordinary id, err = %v", err)
	}
}

func TestEndpoint_GetErrors(t *testing.T) {
	c, tr := setup(t)
	e := c.MustEndpoint("countries", "countries")

	tr.Add("/v1/countries/bad", jsonapi.NewSingleResourceDocument(
		jsonapi.NewResource("countries", "bad").Attr("name", false).BelongsTo("capital", "cities", "").Build(),
	))
	tr.Add("/v1/countries/list", jsonapi.NewCollectionDocument([]jsonapi.Resource{country("1", "Norway", "")}))
	tr.Add("/v1/countries/null", jsonapi.NewDocument().DataNull().Build())
	tr.Add("/v1/countries/dangling", jsonapi.NewSingleResourceDocument(country("1", "Norway", "99")))

	t.Run("not found", func(t *testing.T) {
		_, err := e.Get(context.Background(), "missing", query.Query{})
		if !jsonapi.IsNotFound(err) {
			t.Errorf("err = %v, want not found", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		res, err := e.Get(context.Background(), "bad", query.Query{})
		if res != nil || !decode.HasKind(err, decode.KindValidation) {
			t.Errorf("Get = %v, %v; want validation error", res, err)
		}
		if errs, _ := decode.AsErrors(err); len(errs) != 1 || errs[0].Field != "name" {
			t.Errorf("errors = %v", errs)
		}
	})

	t.Run("collection body", func(t *testing.T) {
		_, err := e.Get(context.Background(), "list", query.Query{})
		if !decode.HasKind(err, decode.KindStructural) {
			t.Errorf("err = %v, want structural", err)
		}
	})

	t.Run("null data", func(t *testing.T) {
		_, err := e.Get(context.Background(), "null", query.Query{})
		if !decode.HasKind(err, decode.KindStructural) {
			t.Errorf("err = %v, want structural", err)
		}
	})

	t.Run("dangling include", func(t *testing.T) {
		_, err := e.Get(context.Background(), "dangling", query.Query{Include: query.Include{"capital": nil}})
		if !decode.HasKind(err, decode.KindReferential) {
			t.Errorf("err = %v, want referential", err)
		}
		if !strings.Contains(err.Error(), "cities/99") {
			t.Errorf("error should name the missing resource: %v", err)
		}
	})
}

func TestEndpoint_Fetch(t *testing.T) {
	c, tr := setup(t)
	e := c.MustEndpoint("countries", "countries")

	doc := jsonapi.NewDocument().
		DataCollection(country("1", "Norway", "10"), country("2", "Sweden", "20")).
		Include(city("10", "Oslo"), city("20", "Stockholm")).
		Links(&jsonapi.Links{Next: "/v1/countries?page[number]=2"}).
		Meta("total", 2).
		Build()
	tr.Add("/v1/countries", doc)

	page, err := e.Fetch(context.Background(), query.Query{Include: query.Include{"capital": nil}})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(page.Resources) != 2 {
		t.Fatalf("got %d resources, want 2", len(page.Resources))
	}
	if capital, _ := page.Resources[1].One("capital"); capital == nil || capital.AttrString("name") != "Stockholm" {
		t.Errorf("second capital = %v", capital)
	}
	if next, ok := page.Next(); !ok || next != "/v1/countries?page[number]=2" {
		t.Errorf("Next = %q, %v", next, ok)
	}
	if page.Meta["total"] != 2 {
		t.Errorf("meta = %v", page.Meta)
	}
}

func TestEndpoint_FetchPartialFailure(t *testing.T) {
	c, tr := setup(t)
	e := c.MustEndpoint("countries", "countries")

	broken := jsonapi.NewResource("countries", "2").
		Attr("name", 42).
		BelongsTo("capital", "cities", "").
		Build()
	tr.Add("/v1/countries", jsonapi.NewCollectionDocument([]jsonapi.Resource{
		country("1", "Norway", ""),
		broken,
		country("3", "Finland", ""),
	}))

	page, err := e.Fetch(context.Background(), query.Query{})
	if err == nil {
		t.Fatal("expected an error for the broken element")
	}
	if page == nil || len(page.Resources) != 2 {
		t.Fatalf("page = %+v, want the two good elements", page)
	}
	if page.Resources[0].ID != "1" || page.Resources[1].ID != "3" {
		t.Errorf("ids = %s, %s; want 1, 3", page.Resources[0].ID, page.Resources[1].ID)
	}

	failures := app.ElementErrors(err)
	if len(failures) != 1 {
		t.Fatalf("got %d element errors, want 1", len(failures))
	}
	if f := failures[0]; f.Index != 1 || f.Identifier.ID != "2" || !f.Errs.HasKind(decode.KindValidation) {
		t.Errorf("failure = %+v", f)
	}
	if !decode.HasKind(err, decode.KindValidation) {
		t.Error("decode kinds should be reachable through the combined error")
	}
}

func TestEndpoint_FetchTransportError(t *testing.T) {
	c, tr := setup(t)
	e := c.MustEndpoint("countries", "countries")
	boom := errors.New("connection reset")
	tr.Fail("/v1/countries", boom)

	page, err := e.Fetch(context.Background(), query.Query{})
	if page != nil || !errors.Is(err, boom) {
		t.Errorf("Fetch = %v, %v; want transport error", page, err)
	}
	if app.ElementErrors(err) != nil {
		t.Error("transport errors carry no element errors")
	}
}

func TestEndpoint_Decode(t *testing.T) {
	c, _ := setup(t)
	e := c.MustEndpoint("countries", "countries")

	page, err := e.Decode(jsonapi.NewSingleResourceDocument(country("1", "Norway", "")), query.Query{
		Fields: map[string][]string{"countries": {"name"}},
	})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(page.Resources) != 1 {
		t.Fatalf("got %d resources", len(page.Resources))
	}
	if _, ok := page.Resources[0].Relationship("capital"); ok {
		t.Error("capital was not selected")
	}
}
