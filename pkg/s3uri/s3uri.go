// Package s3uri parses and formats s3:// object URIs.
package s3uri

import (
	"fmt"
	"strings"
)

const scheme = "s3://"

// URI is a parsed s3://bucket/key location.
type URI struct {
	Bucket string
	Key    string
}

// Parse splits an s3:// URI into bucket and key.
func Parse(raw string) (URI, error) {
	if !strings.HasPrefix(strings.ToLower(raw), scheme) {
		return URI{}, fmt.Errorf("not an s3:// URI: %q", raw)
	}
	rest := raw[len(scheme):]
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("s3 URI missing bucket: %q", raw)
	}
	return URI{Bucket: bucket, Key: key}, nil
}

// Is reports whether raw looks like an s3:// URI.
func Is(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), scheme)
}

// Format builds an s3:// URI from bucket and key.
func Format(bucket, key string) string {
	return scheme + bucket + "/" + key
}

func (u URI) String() string {
	return Format(u.Bucket, u.Key)
}
