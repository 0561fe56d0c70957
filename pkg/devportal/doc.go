// Package devportal defines the public types of the developer portal client.
//
// The API registers vendors and their applications together with the
// container image repository each application is released from. A client is
// built with pkg/dpclient:
//
//	client, err := dpclient.New(ctx, devportal.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	_, err = client.Login(ctx, "dev@example.com", "secret")
//	if err != nil {
//		return err
//	}
//
//	apps, err := client.Vendors().ListApps(ctx, "keboola")
//
// Every call goes through the same pipeline. Server errors are retried with
// exponential backoff, HTTP 503 is retried after a long random pause, and
// an expired bearer token is refreshed transparently. Failures that remain
// are reported as *Error values:
//
//	var apiErr *devportal.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == devportal.KindRemote {
//		fmt.Println(apiErr.StatusCode)
//	}
package devportal
