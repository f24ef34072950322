package master_test

import (
	"context"
	"sync"

	"regionmaster/internal/catalog"
	"regionmaster/internal/region"
)

var (
	serverA = region.Server{Host: "10.0.0.1", Port: 60020, StartCode: 5}
	serverB = region.Server{Host: "10.0.0.2", Port: 60020, StartCode: 9}
)

// recordingWriter is an in-memory catalog.Writer that can fail on demand.
type recordingWriter struct {
	mu       sync.Mutex
	rows     map[string]catalog.Assignment
	puts     []catalog.Row
	targets  []region.CatalogLocation
	failures int
	err      error
	onPut    func(info region.Info)
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{rows: make(map[string]catalog.Assignment)}
}

// failNext makes the next n puts return err.
func (w *recordingWriter) failNext(n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = n
	w.err = err
}

func (w *recordingWriter) Put(_ context.Context, loc region.CatalogLocation, info region.Info, a catalog.Assignment) error {
	w.mu.Lock()
	hook := w.onPut
	w.puts = append(w.puts, catalog.Row{Region: info.Name(), Assignment: a})
	w.targets = append(w.targets, loc)
	if w.failures > 0 {
		w.failures--
		err := w.err
		w.mu.Unlock()
		return err
	}
	w.rows[info.Name()] = a
	w.mu.Unlock()
	if hook != nil {
		hook(info)
	}
	return nil
}

func (w *recordingWriter) attempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.puts)
}

func (w *recordingWriter) row(name string) (catalog.Assignment, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.rows[name]
	return a, ok
}

func (w *recordingWriter) lastTarget() region.CatalogLocation {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.targets) == 0 {
		return region.CatalogLocation{}
	}
	return w.targets[len(w.targets)-1]
}

// countingLocator counts Locate calls made through it.
type countingLocator struct {
	catalog.Locator
	mu    sync.Mutex
	calls int
}

func (l *countingLocator) Locate(ctx context.Context, info region.Info) (region.CatalogLocation, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.Locator.Locate(ctx, info)
}

func (l *countingLocator) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func metaOnline(addr string) region.CatalogLocation {
	return region.CatalogLocation{Address: addr, Region: region.FirstMetaInfo}
}
