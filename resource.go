package dictscan

import (
	"fmt"
	"strings"
	"sync"
)

// Metadata keys set by sources.
const (
	MetaPath        = "path"
	MetaSymlinkFile = "symlink_file"
	MetaSize        = "size"
)

// Resource is one unit of scanned content, such as a file or stdin.
// Every fragment yielded for it points back to it.
type Resource struct {
	Path string
	Kind ResourceKind

	// Source names the producing source, "file" or "stdin".
	Source string

	// Metadata is copied onto every finding in the resource.
	Metadata map[string]string

	identity string
}

// Set stores a metadata value.
func (r *Resource) Set(key, value string) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = value
}

// Get returns a metadata value, or "" when r or the key is missing.
func (r *Resource) Get(key string) string {
	if r == nil {
		return ""
	}
	return r.Metadata[key]
}

// ResourceKind classifies resources for fingerprinting.
type ResourceKind string

// ResourceKindInfo describes a kind. IdentityKeys are the metadata keys that
// identify one resource of the kind, in strictly ascending order.
type ResourceKindInfo struct {
	Kind         ResourceKind
	IdentityKeys []string
	Source       string
}

var kinds = struct {
	sync.RWMutex
	m map[ResourceKind]ResourceKindInfo
}{m: make(map[ResourceKind]ResourceKindInfo)}

// RegisterResourceKind makes a kind known. Sources call it from init.
// It panics on unordered identity keys or a second registration.
func RegisterResourceKind(info ResourceKindInfo) {
	for i := 1; i < len(info.IdentityKeys); i++ {
		if info.IdentityKeys[i-1] >= info.IdentityKeys[i] {
			panic(fmt.Sprintf("resource kind %q: identity keys %v not strictly ascending", info.Kind, info.IdentityKeys))
		}
	}

	kinds.Lock()
	defer kinds.Unlock()
	if _, dup := kinds.m[info.Kind]; dup {
		panic(fmt.Sprintf("resource kind %q registered twice", info.Kind))
	}
	kinds.m[info.Kind] = info
}

// FingerprintKeys returns the identity keys of k. It panics for a kind no
// source registered.
func (k ResourceKind) FingerprintKeys() []string {
	kinds.RLock()
	info, ok := kinds.m[k]
	kinds.RUnlock()
	if !ok {
		panic(fmt.Sprintf("resource kind %q not registered", k))
	}
	return info.IdentityKeys
}

// FingerprintIdentity renders the identity keys of r as comma separated
// key=value pairs. The result is computed once per resource.
func (r *Resource) FingerprintIdentity() string {
	if r.identity == "" {
		keys := r.Kind.FingerprintKeys()
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + r.Metadata[k]
		}
		r.identity = strings.Join(pairs, ",")
	}
	return r.identity
}
