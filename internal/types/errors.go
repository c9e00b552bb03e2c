package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrBaselineNotFound       = fmt.Errorf("network baseline %w", ErrNotFound)
	ErrLockNotAcquired        = errors.New("baseline lock not acquired")
	ErrLockLost               = errors.New("baseline lock lost")
	ErrPublisherNotConfigured = errors.New("publisher not configured")
	ErrInvalidDriver          = errors.New("invalid database driver")
)
