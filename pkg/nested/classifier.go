package nested

import (
	"errors"

	"unnest/pkg/logger"
	"unnest/pkg/unpack"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// Kind is what the classifier decided a file is.
type Kind int

const (
	KindFile Kind = iota
	KindArchive
	// KindVolume is a continuation volume, read through its first volume.
	KindVolume
)

func (k Kind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindVolume:
		return "volume"
	default:
		return "file"
	}
}

// Detector sniffs a file's archive format.
type Detector interface {
	DetectFormat(path string) (unpack.Format, error)
}

type classifyKey struct {
	path    string
	size    int64
	modTime int64
}

// Classifier decides whether a file should be unpacked. It never fails: any
// detection error means "not an archive". Results are memoised per
// (path, size, mtime).
type Classifier struct {
	fs       afero.Fs
	detector Detector
	cache    *lru.Cache[classifyKey, Kind]
}

func NewClassifier(fs afero.Fs, detector Detector, cacheSize int) *Classifier {
	c := &Classifier{fs: fs, detector: detector}
	if cacheSize > 0 {
		cache, err := lru.New[classifyKey, Kind](cacheSize)
		if err != nil {
			logger.Warn("Classification cache disabled", "size", cacheSize, "err", err)
		} else {
			c.cache = cache
		}
	}
	return c
}

func (c *Classifier) Classify(path string) Kind {
	info, err := c.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return KindFile
	}

	key := classifyKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if c.cache != nil {
		if kind, ok := c.cache.Get(key); ok {
			return kind
		}
	}

	kind := KindFile
	_, err = c.detector.DetectFormat(path)
	switch {
	case err == nil:
		kind = KindArchive
	case errors.Is(err, unpack.ErrContinuationVolume):
		kind = KindVolume
	}

	if c.cache != nil {
		c.cache.Add(key, kind)
	}
	return kind
}

func (c *Classifier) IsArchive(path string) bool {
	return c.Classify(path) == KindArchive
}
