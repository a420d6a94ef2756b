package achievement

import "errors"

var (
	ErrAchievementNotFound  = errors.New("achievement not found")
	ErrNameRequired         = errors.New("achievement name is required")
	ErrUnlockTypeInvalid    = errors.New("unlock type is invalid")
	ErrTargetModuleRequired = errors.New("target module is required for module completion achievements")
	ErrPointsInvalid        = errors.New("points reward must not be negative")
)
