package common

import (
	"hjta/util/status"
)

// MT: Constant after initialization; thread-safe
var Log status.Logger = status.Default()
