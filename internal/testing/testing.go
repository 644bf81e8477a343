// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RewriteTransport sends every request to target, keeping the original path and query.
//
// Clients with a fixed base URL, such as the Notion SDK, are pointed at an [httptest.Server] this way.
type RewriteTransport struct {
	target *url.URL
}

func NewRewriteTransport(t *testing.T, target string) *RewriteTransport {
	t.Helper()
	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("invalid rewrite target %q: %v", target, err)
	}
	return &RewriteTransport{target: u}
}

func (rt *RewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustDate parses an ISO date or fails the test.
func MustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := shared.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// MemoryArchive is an in-memory [models.ArchiveStore].
type MemoryArchive struct {
	Records map[string]models.ArchiveRecord
	Err     error // returned by every call when set
	next    int
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{Records: map[string]models.ArchiveRecord{}}
}

func (m *MemoryArchive) Save(ctx context.Context, rec models.ArchiveRecord) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.next++
	rec.ID = fmt.Sprintf("mem-%d", m.next)
	m.Records[rec.ID] = rec
	return rec.ID, nil
}

func (m *MemoryArchive) List(ctx context.Context) ([]models.ArchiveEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ids := make([]string, 0, len(m.Records))
	for id := range m.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]models.ArchiveEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, m.Records[id].Entry())
	}
	return entries, nil
}

func (m *MemoryArchive) Get(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.Records[id]
	if !ok {
		return nil, fmt.Errorf("%w: archive entry %s", shared.ErrNotFound, id)
	}
	return &rec, nil
}

// MemoryUsage is an in-memory [models.UsageStore].
type MemoryUsage struct {
	Log []models.UsageRecord
	Err error
}

func (m *MemoryUsage) Append(ctx context.Context, records ...models.UsageRecord) error {
	if m.Err != nil {
		return m.Err
	}
	m.Log = append(m.Log, records...)
	return nil
}

func (m *MemoryUsage) Records(ctx context.Context, since time.Time) ([]models.UsageRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.UsageRecord
	for _, r := range m.Log {
		if since.IsZero() || !r.DateUsed.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ScriptedDrafter returns canned text per section and fails the sections listed in Fail.
type ScriptedDrafter struct {
	Text  map[models.Section]string
	Fail  []models.Section
	Calls []models.Section
}

func (d *ScriptedDrafter) Draft(ctx context.Context, section models.Section, dc models.DraftContext) (string, error) {
	d.Calls = append(d.Calls, section)
	if slices.Contains(d.Fail, section) {
		return "", fmt.Errorf("%w: scripted failure for %s", shared.ErrGeneration, section)
	}
	if text, ok := d.Text[section]; ok {
		return text, nil
	}
	return fmt.Sprintf("%s for %s", section.Title(), dc.Occasion), nil
}
