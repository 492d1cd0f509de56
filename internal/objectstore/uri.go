package objectstore

import (
	"fmt"
	"strings"
)

// Location is a parsed storage URI.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseURI splits scheme://bucket/key into its parts. The key may be empty
// (a bucket root) and keeps any trailing slash.
func ParseURI(uri string) (Location, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return Location{}, fmt.Errorf("%w: %q: missing scheme", ErrInvalidURI, uri)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("%w: %q: missing bucket", ErrInvalidURI, uri)
	}
	return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// String formats the location back into a URI.
func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}
