package model

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidContentKey is returned when a stored value cannot be turned into an object key.
var ErrInvalidContentKey = errors.New("invalid content key")

// NormalizeContentKey converts a stored media reference into the object key
// relative to bucket. The stored value is a bare key, a bucket-qualified path
// (/<bucket>/<key>), or an absolute URL in virtual-host
// (https://<bucket>.host/<key>) or path-style (https://host/<bucket>/<key>) form. The result never contains scheme, host or
// bucket, and normalizing a normalized key returns it unchanged.
func NormalizeContentKey(stored, bucket string) (string, error) {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return "", ErrInvalidContentKey
	}

	key := stored
	virtualHost := false
	if u, err := url.Parse(stored); err == nil && u.Scheme != "" && u.Host != "" {
		key = u.Path
		virtualHost = isVirtualHost(u.Hostname(), bucket)
	}
	key = strings.TrimLeft(key, "/")
	if bucket != "" && !virtualHost {
		key = strings.TrimPrefix(key, bucket+"/")
	}

	if key == "" || strings.HasSuffix(key, "/") {
		return "", ErrInvalidContentKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidContentKey
		}
	}
	return key, nil
}

func isVirtualHost(host, bucket string) bool {
	return strings.HasPrefix(host, bucket+".")
}
