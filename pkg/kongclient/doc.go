// Package kongclient is the entry point for building a Kong admin API
// client that implements the kong.Client interface.
//
// It normalizes the admin API address, fills in the transport defaults
// and wires the HTTP session, the result cache and the resource gateway
// together. Applications build a client here and then work with the
// returned kong.Client:
//
//	ctx := context.Background()
//
//	// Minimal: an unauthenticated admin API on the loopback interface.
//	cli, err := kongclient.NewWithEndpoint("localhost:8001")
//	if err != nil { log.Fatal(err) }
//
//	// Or behind a key-auth protected loopback service:
//	cli, err = kongclient.NewWithAPIKey("https://kong-admin.example.com", "secret")
//
//	consumers, err := cli.AllOf(ctx, kong.Consumers)
//	if err != nil { log.Fatal(err) }
//	_ = consumers
//
// Addresses without a scheme are treated as plain http, which is how the
// admin API listens by default.
package kongclient
