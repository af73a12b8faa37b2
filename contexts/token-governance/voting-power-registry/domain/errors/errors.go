package errors

import "errors"

var (
	ErrInvalidRegistryInput   = errors.New("invalid registry input")
	ErrRegistryNotFound       = errors.New("voting power registry not found")
	ErrRegistryAlreadyExists  = errors.New("voting power registry already initialized")
	ErrVoterNotFound          = errors.New("voter has no registered power")
	ErrUnauthorizedSource     = errors.New("caller is not an authorized power source")
	ErrTotalPowerOverflow     = errors.New("total voting power overflow")
	ErrTotalPowerInconsistent = errors.New("total voting power underflow: registry bookkeeping violated")
)
