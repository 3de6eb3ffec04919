package loxone

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIInfo(t *testing.T) {
	serial, version, err := parseAPIInfo("{'snr': '50:4F:94:10:B8:4A', 'version':'12.0.2.24', 'key':'', 'httpsStatus':1}")
	require.NoError(t, err)
	assert.Equal(t, "504F9410B84A", serial)
	assert.Equal(t, "12.0.2.24", version)
}

func TestParseAPIInfo_Invalid(t *testing.T) {
	_, _, err := parseAPIInfo("not an object")
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jdev/cfg/api" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"LL":{"control":"dev/cfg/api","value":"{'snr': '50:4F:94:10:B8:4A', 'version':'12.0.2.24'}","Code":"200"}}`)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	res, ok := probe(context.Background(), &http.Client{Timeout: time.Second}, host)
	require.True(t, ok)
	assert.Equal(t, host, res.IP)
	assert.Equal(t, "504F9410B84A", res.Serial)
	assert.Equal(t, "12.0.2.24", res.Version)
}

func TestProbe_NotAMiniserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>router login</html>`)
	}))
	defer srv.Close()

	_, ok := probe(context.Background(), &http.Client{Timeout: time.Second}, strings.TrimPrefix(srv.URL, "http://"))
	assert.False(t, ok)
}

func TestDiscover_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Every probe fails immediately on a canceled context.
	results, err := Discover(ctx)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
