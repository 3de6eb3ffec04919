// Package loxone provides a client for remote-controlling Loxone
// Miniservers over their HTTP(S) JSON API.
//
// # Basic Usage
//
//	ctx := context.Background()
//	client, err := loxone.NewClient(ctx, "504F94A00000", "admin", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	on, err := client.SwitchState(ctx, "0f1e2d3c-0123-4567-ffff-0123456789ab")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// The client can be configured using functional options:
//
//	client, err := loxone.NewClient(ctx, serial, user, password,
//	    loxone.WithTimeout(5*time.Second),
//	    loxone.WithCache(loxone.NewFileCache("/var/cache/loxone.json")),
//	    loxone.WithLogger(slog.Default()),
//	)
//
// # Addressing
//
// Miniservers change their public address, so the client never takes an IP.
// It asks the Loxone cloud DNS for the address belonging to the serial number
// and keeps the answer in a Cache. When a request cannot reach the Miniserver
// the address is resolved again and the request repeated, once by default
// (see WithMaxReconnects).
//
// Requests use HTTPS without certificate validation, because Miniservers
// serve self-signed certificates. Use WithInsecureSkipVerify(false) or
// WithHTTPClient to change that.
//
// # Errors
//
// A failed lookup returns a *ResolutionError. A Miniserver that answers with a
// non-200 status or without a value returns a *ControlError, which is never
// retried. A Miniserver that stays unreachable returns a *ConnectionError.
package loxone
