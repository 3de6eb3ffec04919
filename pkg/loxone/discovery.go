package loxone

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DiscoveryResult represents a Miniserver found on the local network.
type DiscoveryResult struct {
	IP      string
	Serial  string
	Version string
}

// Discover searches for Miniservers on the local network.
// It scans the local /24 subnets with the unauthenticated /jdev/cfg/api
// request on port 80.
// The context controls the overall discovery timeout.
// If the context has no deadline, a 3-second timeout is applied.
func Discover(ctx context.Context) ([]DiscoveryResult, error) {
	var results []DiscoveryResult

	// Apply default timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
	}

	ips, err := getLocalIPs()
	if err != nil {
		return nil, fmt.Errorf("get local IPs: %w", err)
	}

	type scanResult struct {
		res DiscoveryResult
		ok  bool
	}

	count := 0
	for range ips {
		count += 254
	}

	hc := &http.Client{Timeout: 500 * time.Millisecond}

	// Use buffered channel to prevent goroutine leaks
	resultsCh := make(chan scanResult, count)
	var wg sync.WaitGroup

	for _, ip := range ips {
		baseIP := ip.Mask(net.CIDRMask(24, 32))

		for i := 1; i < 255; i++ {
			targetIP := net.IP{baseIP[0], baseIP[1], baseIP[2], byte(i)}
			wg.Add(1)
			go func(host string) {
				defer wg.Done()
				res, ok := probe(ctx, hc, host)
				resultsCh <- scanResult{res: res, ok: ok}
			}(targetIP.String())
		}
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for res := range resultsCh {
		if res.ok {
			results = append(results, res.res)
		}
		select {
		case <-ctx.Done():
			return results, nil
		default:
		}
	}

	return results, nil
}

// probe asks host for its API info. host may carry a port.
func probe(ctx context.Context, hc *http.Client, host string) (DiscoveryResult, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host+"/jdev/cfg/api", nil)
	if err != nil {
		return DiscoveryResult{}, false
	}
	resp, err := hc.Do(req)
	if err != nil {
		return DiscoveryResult{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DiscoveryResult{}, false
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return DiscoveryResult{}, false
	}
	value, err := parseValue(body)
	if err != nil {
		return DiscoveryResult{}, false
	}
	serial, version, err := parseAPIInfo(value)
	if err != nil || serial == "" {
		return DiscoveryResult{}, false
	}

	return DiscoveryResult{IP: host, Serial: serial, Version: version}, true
}

// parseAPIInfo reads the value of a /jdev/cfg/api answer. The Miniserver
// sends it as a single-quoted object:
//
//	{'snr': '50:4F:94:10:B8:4A', 'version':'12.0.2.24', 'httpsStatus':1}
func parseAPIInfo(value string) (serial, version string, err error) {
	var info struct {
		Snr     string `json:"snr"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(strings.ReplaceAll(value, "'", `"`)), &info); err != nil {
		return "", "", fmt.Errorf("parse api info: %w", err)
	}
	return strings.ReplaceAll(info.Snr, ":", ""), info.Version, nil
}

func getLocalIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if v4 := ipnet.IP.To4(); v4 != nil {
				ips = append(ips, v4)
			}
		}
	}
	return ips, nil
}
