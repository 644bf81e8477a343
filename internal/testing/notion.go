package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/jomei/notionapi"
)

// FakeNotion is an in-memory stand-in for the Notion database query and page endpoints.
//
// Filters and sorts in query bodies are recorded but not applied.
type FakeNotion struct {
	Server *httptest.Server

	PageSize int // overrides the requested page size when > 0
	FailPage int // 1-based query page answered with a 500 when > 0

	mu        sync.Mutex
	databases map[string][]string
	pages     map[string]*fakePage
	queries   []json.RawMessage
	next      int
}

type fakePage struct {
	id         string
	database   string
	properties map[string]json.RawMessage
}

// NewFakeNotion starts the fake server and registers its cleanup with t.
func NewFakeNotion(t *testing.T) *FakeNotion {
	t.Helper()
	f := &FakeNotion{databases: map[string][]string{}, pages: map[string]*fakePage{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/databases/{id}/query", f.query)
	mux.HandleFunc("GET /v1/pages/{id}", f.getPage)
	mux.HandleFunc("PATCH /v1/pages/{id}", f.updatePage)
	mux.HandleFunc("POST /v1/pages", f.createPage)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Transport routes requests for api.notion.com to the fake.
func (f *FakeNotion) Transport(t *testing.T) http.RoundTripper {
	return NewRewriteTransport(t, f.Server.URL)
}

// AddPage seeds a page into database and returns its id.
func (f *FakeNotion) AddPage(t *testing.T, database string, props notionapi.Properties) string {
	t.Helper()
	raw, err := splitProperties(props)
	if err != nil {
		t.Fatalf("failed to encode seed properties: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(database, raw)
}

// Queries returns the raw query bodies received so far.
func (f *FakeNotion) Queries() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.queries...)
}

// PageCount reports how many pages database holds.
func (f *FakeNotion) PageCount(database string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.databases[database])
}

func (f *FakeNotion) insert(database string, props map[string]json.RawMessage) string {
	f.next++
	id := fmt.Sprintf("00000000-0000-0000-0000-%012d", f.next)
	f.pages[id] = &fakePage{id: id, database: database, properties: props}
	f.databases[database] = append(f.databases[database], id)
	return id
}

func (f *FakeNotion) query(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartCursor string `json:"start_cursor"`
		PageSize    int    `json:"page_size"`
	}
	raw, err := readBody(r)
	if err == nil {
		err = json.Unmarshal(raw, &body)
	}
	if err != nil {
		writeNotionError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, raw)

	if f.FailPage > 0 && len(f.queries) == f.FailPage {
		writeNotionError(w, http.StatusInternalServerError, "internal_server_error", "query failed")
		return
	}

	ids := f.databases[r.PathValue("id")]
	size := body.PageSize
	if f.PageSize > 0 {
		size = f.PageSize
	}
	if size <= 0 {
		size = 100
	}

	start, _ := strconv.Atoi(body.StartCursor)
	end := min(start+size, len(ids))
	if start > end {
		start = end
	}

	results := make([]map[string]any, 0, end-start)
	for _, id := range ids[start:end] {
		results = append(results, f.pages[id].json())
	}

	resp := map[string]any{"object": "list", "results": results, "has_more": end < len(ids), "next_cursor": nil}
	if end < len(ids) {
		resp["next_cursor"] = strconv.Itoa(end)
	}
	writeJSON(w, resp)
}

func (f *FakeNotion) getPage(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.pages[r.PathValue("id")]
	if !ok {
		writeNotionError(w, http.StatusNotFound, "object_not_found", "Could not find page")
		return
	}
	writeJSON(w, p.json())
}

func (f *FakeNotion) createPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Parent struct {
			DatabaseID string `json:"database_id"`
		} `json:"parent"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeNotionError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.insert(body.Parent.DatabaseID, body.Properties)
	writeJSON(w, f.pages[id].json())
}

func (f *FakeNotion) updatePage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeNotionError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.pages[r.PathValue("id")]
	if !ok {
		writeNotionError(w, http.StatusNotFound, "object_not_found", "Could not find page")
		return
	}
	for k, v := range body.Properties {
		p.properties[k] = v
	}
	writeJSON(w, p.json())
}

func (p *fakePage) json() map[string]any {
	return map[string]any{
		"object":           "page",
		"id":               p.id,
		"created_time":     "2026-01-01T00:00:00.000Z",
		"last_edited_time": "2026-01-01T00:00:00.000Z",
		"archived":         false,
		"parent":           map[string]any{"type": "database_id", "database_id": p.database},
		"properties":       p.properties,
		"url":              "https://www.notion.so/" + strings.ReplaceAll(p.id, "-", ""),
	}
}

func splitProperties(props notionapi.Properties) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeBody(r *http.Request, v any) error {
	raw, err := readBody(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeNotionError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"object": "error", "status": status, "code": code, "message": message})
}
