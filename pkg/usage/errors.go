package usage

import "errors"

// Domain errors for usage tracking. Callers distinguish failure kinds
// with errors.Is instead of inspecting message strings.
var (
	// ErrNotAuthenticated is returned when tracking is attempted without a user.
	ErrNotAuthenticated = errors.New("usage: no authenticated user")

	// ErrUnknownFeature is returned for feature keys outside the closed vocabulary.
	ErrUnknownFeature = errors.New("usage: unknown feature")

	// ErrNotMetered is returned when tracking is attempted for a pure
	// permission feature that has no counter.
	ErrNotMetered = errors.New("usage: feature is not metered")

	// ErrQuotaExceeded is returned when the requested amount does not fit
	// the remaining daily/monthly budget.
	ErrQuotaExceeded = errors.New("usage: quota exceeded")

	// ErrTrackingFailed wraps store failures during the increment call.
	ErrTrackingFailed = errors.New("usage: failed to record usage")

	// ErrSnapshotFailed wraps store failures during the snapshot read.
	ErrSnapshotFailed = errors.New("usage: failed to load usage snapshot")

	// ErrUserNotFound is returned by stores when no record exists for the user.
	ErrUserNotFound = errors.New("usage: user record not found")
)
