package ratelimiter

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"

	"github.com/qrforge/qrforge/pkg/clientip"
)

// maxKeyLength bounds storage key size; longer composites are hashed.
const maxKeyLength = 64

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys buckets on the caller's IP address, seen through
// proxy headers when present.
func ByClientIP() KeyFunc {
	return func(r *http.Request) string {
		return clientip.GetIP(r)
	}
}

// ByHeader keys buckets on a request header value, such as the
// authenticated user ID. Requests without the header yield an empty
// key and fall through to the next key function in a Composite.
func ByHeader(name string) KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

// Composite returns the first non-empty key the given functions
// produce. Keys over 64 characters are hashed with FNV-1a.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range keyFuncs {
			key := fn(r)
			if key == "" {
				continue
			}
			if len(key) > maxKeyLength {
				h := fnv.New64a()
				h.Write([]byte(key))
				return strconv.FormatUint(h.Sum64(), 36)
			}
			return key
		}
		return ""
	}
}

// Middleware enforces the limiter on every request, answering 429 with
// a Retry-After header when the bucket is empty. Requests that produce
// no key pass through unlimited.
func Middleware(limiter RateLimiter, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// The limiter never blocks traffic on backend failure.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":{"code":"rate_limited","message":"too many requests"}}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
