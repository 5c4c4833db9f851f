package payments

import "errors"

// ErrUnknownProvider marks a webhook whose transaction ref was never
// issued by this ledger. Recorded and acknowledged, never retried.
var ErrUnknownProvider = errors.New("unknown provider transaction ref")
