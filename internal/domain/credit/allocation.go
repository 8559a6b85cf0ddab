package credit

// Allocate splits a required spend across the two pools, exhausting free
// credits before touching paid ones. It is the single source of truth for
// the split: callers display its result, they never recompute it.
//
// Returns ErrInvalidAmount for required <= 0 (free resources never reach the
// ledger) and ErrInsufficientCredits when the pools cannot cover the spend —
// a short allocation is an error, never a partial result.
func Allocate(required, freeBalance, paidBalance int) (freeToSpend, paidToSpend int, err error) {
	if required <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if freeBalance < 0 || paidBalance < 0 {
		return 0, 0, ErrInvalidAmount
	}
	if freeBalance+paidBalance < required {
		return 0, 0, ErrInsufficientCredits
	}

	freeToSpend = min(freeBalance, required)
	paidToSpend = required - freeToSpend
	return freeToSpend, paidToSpend, nil
}
