package errorvalues

import "errors"

var (
	ErrUserExists       = errors.New("such user already exists")
	ErrUserNotFound     = errors.New("user doesn't exists")
	ErrWrongCredentials = errors.New("wrong name or password")
	ErrInvalidToken     = errors.New("invalid token")
	ErrWrongOwner       = errors.New("resource belongs to another user")

	ErrLimitNotFound    = errors.New("limit doesn't exist")
	ErrLimitExists      = errors.New("active limit of this type already exists for package")
	ErrStrictLimitLock  = errors.New("strict limits can't be deactivated or extended")
	ErrInvalidProposal  = errors.New("limit proposal rejected by validation")
	ErrProfileNotFound  = errors.New("behavior profile doesn't exist")
	ErrNoUsageHistory   = errors.New("no usage history for package")
	ErrTargetTooHigh    = errors.New("target must be below the starting limit")
	ErrProgressiveExist = errors.New("active progressive limit already exists for package")
	ErrProgressiveGone  = errors.New("progressive limit doesn't exist")
	ErrMilestoneGone    = errors.New("milestone doesn't exist")
	ErrCooldownActive   = errors.New("package is in an active cooldown")
)
