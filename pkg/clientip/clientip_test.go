package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qrforge/qrforge/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	newRequest := func(remoteAddr string, headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	t.Run("falls back to remote address", func(t *testing.T) {
		t.Parallel()
		req := newRequest("203.0.113.7:4411", nil)
		assert.Equal(t, "203.0.113.7", clientip.GetIP(req))
	})

	t.Run("prefers CDN header over forwarded chain", func(t *testing.T) {
		t.Parallel()
		req := newRequest("10.0.0.1:80", map[string]string{
			"CF-Connecting-IP": "198.51.100.2",
			"X-Forwarded-For":  "192.0.2.1, 10.0.0.1",
		})
		assert.Equal(t, "198.51.100.2", clientip.GetIP(req))
	})

	t.Run("uses first valid forwarded entry", func(t *testing.T) {
		t.Parallel()
		req := newRequest("10.0.0.1:80", map[string]string{
			"X-Forwarded-For": "bogus, 192.0.2.1, 10.0.0.1",
		})
		assert.Equal(t, "192.0.2.1", clientip.GetIP(req))
	})

	t.Run("real IP header", func(t *testing.T) {
		t.Parallel()
		req := newRequest("10.0.0.1:80", map[string]string{
			"X-Real-IP": "192.0.2.9",
		})
		assert.Equal(t, "192.0.2.9", clientip.GetIP(req))
	})

	t.Run("normalizes IPv6", func(t *testing.T) {
		t.Parallel()
		req := newRequest("[2001:db8::1]:443", nil)
		assert.Equal(t, "2001:db8::1", clientip.GetIP(req))
	})

	t.Run("invalid header values are skipped", func(t *testing.T) {
		t.Parallel()
		req := newRequest("203.0.113.7:4411", map[string]string{
			"CF-Connecting-IP": "not-an-ip",
		})
		assert.Equal(t, "203.0.113.7", clientip.GetIP(req))
	})

	t.Run("nothing valid yields empty", func(t *testing.T) {
		t.Parallel()
		req := newRequest("garbage", nil)
		assert.Equal(t, "", clientip.GetIP(req))
	})
}
