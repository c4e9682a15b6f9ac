package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the linkage service can translate them into response statuses.
//
// - ErrNotFound: no record for the linkage key, or no composite-key match
// - ErrConflict: a concurrent writer changed the record mid-transaction
// - ErrUnavailable: backing engine unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
