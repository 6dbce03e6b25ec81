// Package retry wraps github.com/sethvargo/go-retry with the error
// classification used by the live Instagram provider.
//
// Network, rate limit and server errors are retried with exponential
// backoff; auth, not found, parsing and validation errors fail at once.
//
//	cfg := retry.FromConfig(&appCfg.Retry, log)
//	profile, err := retry.DoWithResult(ctx, cfg, func(ctx context.Context) (*instagram.WebProfile, error) {
//		return client.FetchWebProfile(ctx, username)
//	})
package retry
