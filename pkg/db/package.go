package db

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"nanopubd/pkg/logger"
	"nanopubd/pkg/nanopub"
	"nanopubd/pkg/store"
)

func packageKey(pageNo int64) string { return fmt.Sprintf("package:%d", pageNo) }

// WritePackage streams the bundle of all nanopubs on a complete page:
// each serialized form, newline-terminated, in page order, gzipped
// end-to-end when gzipped is true. The compressed bundle is cached in the
// store on first request. Complete pages are immutable, so the cache is
// pure memoization: a concurrent first access may compute the same blob
// twice and overwrite it harmlessly.
func (d *NanopubDb) WritePackage(pageNo int64, gzipped bool, out io.Writer) error {
	if pageNo < 1 || pageNo >= d.j.CurrentPageNo() {
		return fmt.Errorf("%w: %d", ErrInvalidPage, pageNo)
	}

	cached, err := d.st.Get(packageKey(pageNo))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err == nil {
		if gzipped {
			_, err := out.Write(cached)
			return err
		}
		gr, err := gzip.NewReader(bytes.NewReader(cached))
		if err != nil {
			return fmt.Errorf("cached package %d is corrupted: %w", pageNo, err)
		}
		defer gr.Close()
		_, err = io.Copy(out, gr)
		return err
	}

	return d.buildPackage(pageNo, gzipped, out)
}

// buildPackage derives the bundle from the journal page and the nanopub
// table, writing it to the caller while also populating the cache.
func (d *NanopubDb) buildPackage(pageNo int64, gzipped bool, out io.Writer) error {
	pageContent, err := d.j.PageContent(pageNo)
	if err != nil {
		return err
	}

	var gzOut *gzip.Writer
	if gzipped {
		gzOut = gzip.NewWriter(out)
		out = gzOut
	}
	var buf bytes.Buffer
	cacheOut := gzip.NewWriter(&buf)

	for _, uri := range strings.Split(pageContent, "\n") {
		if uri == "" {
			continue
		}
		np, err := d.GetNanopub(nanopub.ArtifactCode(uri))
		if err != nil {
			if errors.Is(err, ErrNanopubNotFound) {
				// A complete page must resolve fully; this is the crash
				// window of the append path, not a client error.
				logger.Error("package_inconsistent", "page", pageNo, "uri", uri)
				return fmt.Errorf("%w: page %d: %s", ErrInconsistent, pageNo, uri)
			}
			return err
		}
		b := []byte(np.Content)
		if !bytes.HasSuffix(b, []byte("\n")) {
			b = append(b, '\n')
		}
		if _, err := out.Write(b); err != nil {
			return err
		}
		if _, err := cacheOut.Write(b); err != nil {
			return err
		}
	}

	if err := cacheOut.Close(); err != nil {
		return err
	}
	if gzOut != nil {
		if err := gzOut.Close(); err != nil {
			return err
		}
	}
	if err := d.st.Set(packageKey(pageNo), buf.Bytes()); err != nil {
		return err
	}
	logger.Info("package_cached", "page", pageNo, "bytes", buf.Len())
	return nil
}
