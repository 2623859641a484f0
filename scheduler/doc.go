// Package scheduler polls the rate cache on a fixed cadence
// for every active subscription.
//
// Each subscription gets its own ticks. Ticks never wait on each other,
// and subscriptions of the same currency share upstream fetches
// through the cache
package scheduler
