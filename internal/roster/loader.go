package roster

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// maxPayloadBytes caps how much of a remote spreadsheet is read.
const maxPayloadBytes = 32 << 20

// Source kinds.
const (
	SourceHTTP  = "http"
	SourceFile  = "file"
	SourceSheet = "sheet"
)

// Source is one candidate roster location.
type Source struct {
	Kind     string
	Location string
}

func (s Source) String() string {
	if s.Kind == SourceSheet {
		return "sheet:" + s.Location
	}
	return s.Location
}

// ParseSources splits a comma-separated source list into candidates, tried in
// the order given. http(s) URLs are fetched, "sheet:<spreadsheet-id>" entries
// go through the Sheets API, anything else is a local path.
func ParseSources(spec string) []Source {
	var out []Source
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.HasPrefix(part, "http://"), strings.HasPrefix(part, "https://"):
			out = append(out, Source{Kind: SourceHTTP, Location: part})
		case strings.HasPrefix(part, "sheet:"):
			out = append(out, Source{Kind: SourceSheet, Location: strings.TrimPrefix(part, "sheet:")})
		default:
			out = append(out, Source{Kind: SourceFile, Location: part})
		}
	}
	return out
}

// Attempt records one failed candidate during a load.
type Attempt struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// LoadError is returned when every candidate source failed. It enumerates what
// was tried so the caller can surface the list and fall back to manual upload.
type LoadError struct {
	Attempts []Attempt
}

func (e *LoadError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Source, a.Error))
	}
	if len(parts) == 0 {
		return "no roster sources configured"
	}
	return "no roster source succeeded: tried " + strings.Join(parts, "; ")
}

// LoaderConfig wires a Loader.
type LoaderConfig struct {
	Sources     []Source
	HTTPClient  *http.Client
	SheetAPIKey string
	SheetRange  string
	Logger      logrus.FieldLogger
}

// Loader fills the index from the first candidate source that yields a
// parseable roster. Loads are caller-sequential: one at a time, and a no-op
// once the index is populated.
type Loader struct {
	index  *Index
	cfg    LoaderConfig
	client *http.Client
	log    logrus.FieldLogger

	mu      sync.Mutex
	lastErr error
}

func NewLoader(index *Index, cfg LoaderConfig) *Loader {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.SheetRange == "" {
		cfg.SheetRange = "A:Z"
	}
	return &Loader{index: index, cfg: cfg, client: client, log: log}
}

// Index returns the index this loader fills.
func (l *Loader) Index() *Index { return l.index }

// LastError returns the most recent load failure, or nil after a success.
func (l *Loader) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Load populates the index from the candidate sources, in order. Once the
// index is loaded this is a no-op until Reload or an upload resets it.
func (l *Loader) Load(ctx context.Context) error {
	if l.index.Loaded() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index.Loaded() {
		// A concurrent caller finished the load while we waited.
		return nil
	}

	var attempts []Attempt
	for _, src := range l.cfg.Sources {
		headers, records, err := l.fetch(ctx, src)
		if err != nil {
			l.log.WithField("source", src.String()).WithError(err).Warn("Roster source failed")
			attempts = append(attempts, Attempt{Source: src.String(), Error: err.Error()})
			continue
		}
		count := l.index.Replace(src.String(), headers, records)
		l.lastErr = nil
		l.log.WithFields(logrus.Fields{
			"source": src.String(),
			"rows":   count,
		}).Info("Roster loaded")
		return nil
	}

	err := &LoadError{Attempts: attempts}
	l.lastErr = err
	return err
}

// Reload discards the current index and runs a fresh load.
func (l *Loader) Reload(ctx context.Context) error {
	l.index.Reset()
	return l.Load(ctx)
}

// LoadFromUpload replaces the index from a user-supplied file, regardless of
// any previously loaded roster. A parse failure leaves the old index in place.
func (l *Loader) LoadFromUpload(filename string, r io.Reader) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	headers, records, err := Parse(r, filename)
	if err != nil {
		return 0, fmt.Errorf("parse uploaded roster: %w", err)
	}
	count := l.index.Replace("upload:"+path.Base(filename), headers, records)
	l.lastErr = nil
	l.log.WithFields(logrus.Fields{
		"file": path.Base(filename),
		"rows": count,
	}).Info("Roster replaced from upload")
	return count, nil
}

func (l *Loader) fetch(ctx context.Context, src Source) ([]string, []Record, error) {
	switch src.Kind {
	case SourceHTTP:
		return l.fetchHTTP(ctx, src.Location)
	case SourceFile:
		return l.fetchFile(src.Location)
	case SourceSheet:
		return l.fetchSheet(ctx, src.Location)
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, url string) ([]string, []Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	// Always fetch a fresh copy; stale rosters are worse than slow ones.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return Parse(io.LimitReader(resp.Body, maxPayloadBytes), path.Base(req.URL.Path))
}

func (l *Loader) fetchFile(location string) ([]string, []Record, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Parse(f, location)
}

// fetchSheet pulls the roster straight from a Google Sheet. Only public sheets
// are reachable this way; the API key is enough, no OAuth dance.
func (l *Loader) fetchSheet(ctx context.Context, spreadsheetID string) ([]string, []Record, error) {
	if l.cfg.SheetAPIKey == "" {
		return nil, nil, fmt.Errorf("sheets API key not configured")
	}

	srv, err := sheets.NewService(ctx, option.WithAPIKey(l.cfg.SheetAPIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("create sheets client: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, l.cfg.SheetRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet values: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, fmt.Errorf("sheet is empty")
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				cells[j] = strings.TrimSpace(fmt.Sprintf("%v", cell))
			}
		}
		rows[i] = cells
	}
	return ParseRows(rows)
}
