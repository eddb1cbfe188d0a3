// Package uri parses sample file locations of the form
// s3://<bucket>/<key> into their bucket and key components.
package uri

import (
	"strings"

	"github.com/surveysdx/sample-loader/internal/fault"
)

// Scheme is the only recognized object storage scheme.
const Scheme = "s3://"

// Location identifies an object in storage.
type Location struct {
	Bucket string
	Key    string
}

// Parse splits location into its bucket and key.  The location must
// begin with the s3:// scheme and carry non-empty bucket and key
// segments; anything else is an InvalidURI fault whose text names the
// bucket location.  Parse has no side effects.
func Parse(location string) (Location, error) {
	if !strings.HasPrefix(location, Scheme) {
		return Location{}, fault.New(fault.ErrInvalidURI, "invalid bucket location: "+location)
	}
	bucket, key, found := strings.Cut(strings.TrimPrefix(location, Scheme), "/")
	if !found || bucket == "" || key == "" {
		return Location{}, fault.New(fault.ErrInvalidURI, "invalid bucket location: "+location)
	}
	return Location{Bucket: bucket, Key: key}, nil
}
