package clics

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// eventFeedFiles are the names an event feed may have inside a contest package.
var eventFeedFiles = []string{"event-feed.ndjson", "event-feed.json"}

// isPackage reports whether name looks like a gzipped tar contest package.
func isPackage(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

type packageReader struct {
	io.Reader
	closers []io.Closer
}

func (p *packageReader) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openPackage finds the event feed in a contest package. The returned reader
// closes rc.
func openPackage(rc io.ReadCloser) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, errors.New("invalid tar.gz contest package")
	}
	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = gr.Close()
			_ = rc.Close()
			return nil, fmt.Errorf("invalid tar.gz contest package: %w", err)
		}
		if !header.FileInfo().Mode().IsRegular() {
			continue
		}
		if isEventFeedFile(header.Name) {
			return &packageReader{Reader: tr, closers: []io.Closer{rc, gr}}, nil
		}
	}
	_ = gr.Close()
	_ = rc.Close()
	return nil, errors.New("contest package has no event feed")
}

func isEventFeedFile(name string) bool {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	base := path.Base(clean)
	for _, f := range eventFeedFiles {
		if base == f {
			return true
		}
	}
	return false
}
