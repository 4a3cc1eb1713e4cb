package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func listingBody(t *testing.T, found int, ids ...int) string {
	t.Helper()
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf(`{"id":"%d","name":"vacancy %d"}`, id, id)
	}
	return fmt.Sprintf(`{"items":[%s],"found":%d,"pages":99}`, strings.Join(items, ","), found)
}

func collectItems(items *[]json.RawMessage) ItemHandler {
	return func(raw json.RawMessage) error {
		*items = append(*items, raw)
		return nil
	}
}

func TestListVacanciesStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	ids := make([]int, 100)
	for i := range ids {
		ids[i] = i + 1
	}
	doer := &stubDoer{responses: []stubResponse{
		{status: 200, body: listingBody(t, 100, ids...)},
		{status: 200, body: listingBody(t, 100)},
	}}
	c, _ := newTestClient(t, doer)

	var items []json.RawMessage
	err := c.ListVacancies(context.Background(), SearchParameters{Areas: []string{"113"}}, nil, collectItems(&items))
	require.NoError(t, err)

	require.Len(t, items, 100, "exactly the first page's items are yielded")
	require.Len(t, doer.urls, 2, "no page 2 call after the empty page")
	require.Contains(t, doer.urls[0], "page=0")
	require.Contains(t, doer.urls[1], "page=1")
}

func TestListVacanciesHonorsHardPageCap(t *testing.T) {
	t.Parallel()

	// Every page is full and the provider reports far more results than the
	// cap allows; the walk must stop at max_pages anyway.
	cfg := testAPIConfig()
	cfg.MaxPages = 3
	cfg.PerPage = 2

	responses := make([]stubResponse, 10)
	for i := range responses {
		responses[i] = stubResponse{status: 200, body: listingBody(t, 5000, 2*i+1, 2*i+2)}
	}
	doer := &stubDoer{responses: responses}
	c, _ := newTestClient(t, doer)
	c.cfg = cfg

	var items []json.RawMessage
	err := c.ListVacancies(context.Background(), SearchParameters{Areas: []string{"113"}}, nil, collectItems(&items))
	require.NoError(t, err)

	require.Len(t, doer.urls, 3)
	require.Len(t, items, cfg.MaxPages*cfg.PerPage)
}

func TestListVacanciesStopsAndSwallowsNoData(t *testing.T) {
	t.Parallel()

	doer := &stubDoer{responses: []stubResponse{
		{status: 200, body: listingBody(t, 10, 1, 2)},
		{status: 500, body: "boom"},
	}}
	c, _ := newTestClient(t, doer)

	var items []json.RawMessage
	err := c.ListVacancies(context.Background(), SearchParameters{Areas: []string{"113"}}, nil, collectItems(&items))
	require.NoError(t, err, "a failed page ends the walk without surfacing an error")
	require.Len(t, items, 2)
}

func TestListVacanciesPassesFiltersAndPaging(t *testing.T) {
	t.Parallel()

	doer := &stubDoer{responses: []stubResponse{{status: 200, body: listingBody(t, 0)}}}
	c, _ := newTestClient(t, doer)

	search := SearchParameters{
		Areas:       []string{"1", "2"},
		Text:        "golang",
		SearchField: "name",
		Experience:  "between1And3",
		Employment:  "full",
		Schedule:    "remote",
	}
	err := c.ListVacancies(context.Background(), search, nil, collectItems(&[]json.RawMessage{}))
	require.NoError(t, err)
	require.Len(t, doer.urls, 1)

	u, err := url.Parse(doer.urls[0])
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, []string{"1", "2"}, q["area"], "area codes are repeated parameters")
	require.Equal(t, "golang", q.Get("text"))
	require.Equal(t, "name", q.Get("search_field"))
	require.Equal(t, "between1And3", q.Get("experience"))
	require.Equal(t, "full", q.Get("employment"))
	require.Equal(t, "remote", q.Get("schedule"))
	require.Equal(t, "0", q.Get("page"))
	require.Equal(t, "100", q.Get("per_page"))
}

func TestListVacanciesInvokesPageHandlerBeforeItems(t *testing.T) {
	t.Parallel()

	doer := &stubDoer{responses: []stubResponse{
		{status: 200, body: listingBody(t, 2, 1, 2)},
		{status: 200, body: listingBody(t, 2)},
	}}
	c, _ := newTestClient(t, doer)

	var order []string
	onPage := func(page int, _ json.RawMessage) error {
		order = append(order, fmt.Sprintf("page-%d", page))
		return nil
	}
	onItem := func(_ json.RawMessage) error {
		order = append(order, "item")
		return nil
	}
	require.NoError(t, c.ListVacancies(context.Background(), SearchParameters{Areas: []string{"113"}}, onPage, onItem))
	require.Equal(t, []string{"page-0", "item", "item"}, order)
}

func TestAreasDecodesTree(t *testing.T) {
	t.Parallel()

	body := `[{"id":"113","parent_id":null,"name":"Россия","areas":[{"id":"1","parent_id":"113","name":"Москва","areas":[]}]}]`
	doer := &stubDoer{responses: []stubResponse{{status: 200, body: body}}}
	c, _ := newTestClient(t, doer)

	tree, err := c.Areas(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, "113", tree[0].ID)
	require.Len(t, tree[0].Areas, 1)
	require.Equal(t, "Москва", tree[0].Areas[0].Name)
}

func TestProfessionalRolesDecodesCatalog(t *testing.T) {
	t.Parallel()

	body := `{"categories":[{"id":"11","name":"IT","roles":[{"id":"96","name":"Программист","accept_incomplete_resumes":false}]}]}`
	doer := &stubDoer{responses: []stubResponse{{status: 200, body: body}}}
	c, _ := newTestClient(t, doer)

	catalog, err := c.ProfessionalRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Categories, 1)
	require.Equal(t, "96", catalog.Categories[0].Roles[0].ID)
}
