package services

import (
	"errors"
	"fmt"
)

// Claim and command failure modes. These are expected outcomes, recovered
// by the caller and turned into a user-facing reply; they are never logged
// as failures. Anything else coming out of a service is a persistence
// error and aborts the event with a generic reply.
var (
	ErrNoActivity      = errors.New("no recorded activity for user in group")
	ErrRewardsDisabled = errors.New("rewards are disabled for group")
	ErrNoActiveReward  = errors.New("no active reward")
	ErrRewardExpired   = errors.New("reward period has expired")
	ErrAlreadyClaimed  = errors.New("reward already claimed")
)

// ValidationError marks malformed command arguments (e.g. a non-positive
// reward range). The message is safe to show to the user.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// IsUserFacing reports whether err maps to a specific user-visible reply
// rather than a generic failure message.
func IsUserFacing(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrNoActivity) ||
		errors.Is(err, ErrRewardsDisabled) ||
		errors.Is(err, ErrNoActiveReward) ||
		errors.Is(err, ErrRewardExpired) ||
		errors.Is(err, ErrAlreadyClaimed) ||
		errors.As(err, &ve)
}
