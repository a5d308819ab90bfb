package archival

import (
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/metrics"
)

type Resolver interface {
	Resolve(virtualPath string) (string, bool)
}

type Builder struct {
	Registry Resolver
}

func NewBuilder(registry Resolver) *Builder {
	return &Builder{Registry: registry}
}

// BuildArchive streams a zip of every requested artifact the registry knows about. References
// that do not resolve, or repeat an earlier one, are skipped. The number of entries is returned
// alongside the stream.
func (b *Builder) BuildArchive(ctx rcontext.RequestContext, refs []string) (io.ReadCloser, int, error) {
	if len(refs) == 0 {
		return nil, 0, common.ErrEmptyArchiveRequest
	}

	seen := make(map[string]bool)
	entries := make([]Entry, 0, len(refs))
	for _, ref := range refs {
		virtualPath := normalizeRef(ref)
		log := ctx.Log.WithField("ref", ref)
		if seen[virtualPath] {
			log.Debug("Skipping duplicate archive reference")
			metrics.ArchiveEntriesSkipped.WithLabelValues("duplicate").Inc()
			continue
		}

		location, ok := b.Registry.Resolve(virtualPath)
		if !ok {
			log.Warn("Skipping unknown archive reference")
			metrics.ArchiveEntriesSkipped.WithLabelValues("unknown").Inc()
			continue
		}
		if _, err := os.Stat(location); err != nil {
			log.Warn("Skipping archive reference with missing file: ", err)
			metrics.ArchiveEntriesSkipped.WithLabelValues("missing").Inc()
			continue
		}

		seen[virtualPath] = true
		entries = append(entries, Entry{
			Name: path.Base(virtualPath),
			Open: func() (io.ReadCloser, error) {
				return os.Open(location)
			},
		})
	}

	if len(entries) == 0 {
		return nil, 0, common.ErrNoValidArchiveEntries
	}

	ctx.Log.WithFields(logrus.Fields{
		"requested": len(refs),
		"included":  len(entries),
	}).Info("Streaming archive")
	metrics.ArchivesServed.Inc()
	return StreamZip(entries), len(entries), nil
}

// normalizeRef accepts either a bare virtual path or a full URL to one.
func normalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		return u.Path
	}
	return ref
}
