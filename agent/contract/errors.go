package contract

import "errors"

var (
	ErrEngineInvoke = errors.New("engine invoke failed")
	ErrValidation   = errors.New("validation failed")
	ErrToolNotFound = errors.New("tool not found")
)
