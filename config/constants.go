package config

import "time"

const (
	// Smallest withdrawal a worker may request, in coins
	MinWithdrawalCoins = 200

	// Size of the /top-workers leaderboard
	TopWorkersLimit = 8

	// Store timeouts
	ConnectTimeout = 10 * time.Second
	IndexTimeout   = 30 * time.Second
	RequestTimeout = 15 * time.Second

	// Budget for an undo step after a workflow step failed
	CompensationTimeout = 5 * time.Second

	// Rate limits (requests per second, burst)
	RateLimitDefault      = 20
	RateLimitDefaultBurst = 40
	RateLimitStrict       = 1
	RateLimitStrictBurst  = 5

	// Limiters untouched for this long are dropped by Cleanup
	RateLimitIdleTimeout = 10 * time.Minute
)
