// Package integrations provides HTTP clients for the remote data feeds shown
// on the panel.
//
// # Overview
//
// Each feed has its own subpackage:
//
//   - [kraken]: Kraken public ticker (spot prices)
//   - [quotes]: quote-of-the-day feeds
//
// # Client Pattern
//
// Feed clients embed the shared [Client] and expose one typed method:
//
//	client := kraken.NewClient("")
//	tick, err := client.Ticker(ctx, "XXBTZUSD")
//
// # Error Classification
//
// Every failure carries an [errors.Code] from pkg/errors:
//
//   - TRANSPORT: connection failures, timeouts and non-2xx responses
//   - SCHEMA: bodies that are not the expected JSON shape
//
// Source adapters fall back to the value cache on either code, but the code
// is kept in the outcome reason so the two cases are distinguishable in logs
// and notifications.
package integrations
