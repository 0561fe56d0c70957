// Package dpclient provides the main entry point for creating developer portal API clients.
//
// The constructors return a devportal.Client backed by the retrying,
// token-refreshing implementation:
//
//	client, err := dpclient.NewWithPassword(ctx, devportal.DefaultBaseURL, "dev@example.com", "secret")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	vendors, err := client.Public().ListVendors(ctx)
package dpclient
