package outbound

import (
	"context"
	"time"
)

// MediaStoragePort persists generated media and returns a URL for it.
type MediaStoragePort interface {
	// Put stores one output of a request. mediaType is "image", "video" or
	// "gif"; ext has no leading dot. The returned URL is valid for at least ttl
	// when the backend supports expiry.
	Put(ctx context.Context, requestID, mediaType string, index int, data []byte, ext string, ttl time.Duration) (string, error)

	// Name returns the backend name.
	Name() string
}
