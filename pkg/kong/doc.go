// Package kong provides the public types for talking to the Kong admin API.
//
// It defines the resource catalogue and its capability table, the
// opaque record and list envelope types, the error taxonomy, the
// dotted-key payload builder used by the command line, and the
// result memoization cache that the gateway uses to avoid refetching
// collections during a single invocation.
//
// The concrete gateway is built by the kongclient package:
//
//	gateway, err := kongclient.NewWithAPIKey("http://localhost:8001", key)
//	if err != nil {
//		return err
//	}
//
//	consumers, err := gateway.AllOf(ctx, kong.Consumers)
//	if err != nil {
//		return err
//	}
package kong
