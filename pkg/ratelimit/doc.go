// Package ratelimit provides the rate limiters used by igaudit.
//
// Two algorithms implement the Limiter interface:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Bounds outbound calls to Instagram from the live provider
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Backs KeyedLimiter, which the HTTP API uses per client IP
//
// Wait honours context cancellation:
//
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
//	perClient := ratelimit.NewKeyedLimiter(30, time.Minute)
//	if !perClient.Allow(c.ClientIP()) {
//	    // reject with 429
//	}
package ratelimit
