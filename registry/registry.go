package registry

import (
	"errors"
	"strings"

	"github.com/patrickmn/go-cache"
)

const VirtualPrefix = "/outputs/"

var ErrAlreadyRegistered = errors.New("virtual path already registered")
var ErrInvalidPath = errors.New("virtual path must be under " + VirtualPrefix)

// Registry maps virtual paths handed to clients onto files this process wrote. Entries are never
// replaced or removed for the life of the process.
type Registry struct {
	entries *cache.Cache
}

func New() *Registry {
	return &Registry{
		entries: cache.New(cache.NoExpiration, 0),
	}
}

// Register records a new output. Fails with ErrAlreadyRegistered if the path was ever registered.
func (r *Registry) Register(virtualPath string, absoluteLocation string) error {
	if !strings.HasPrefix(virtualPath, VirtualPrefix) || len(virtualPath) == len(VirtualPrefix) {
		return ErrInvalidPath
	}
	if err := r.entries.Add(virtualPath, absoluteLocation, cache.NoExpiration); err != nil {
		return ErrAlreadyRegistered
	}
	return nil
}

func (r *Registry) Resolve(virtualPath string) (string, bool) {
	v, ok := r.entries.Get(virtualPath)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (r *Registry) Len() int {
	return r.entries.ItemCount()
}

// VirtualPath builds the client-facing reference for an output file name.
func VirtualPath(fileName string) string {
	return VirtualPrefix + fileName
}
