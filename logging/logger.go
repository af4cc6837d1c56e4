package logging

import "go.uber.org/zap"

// New returns the global sugared logger, named for the component using it
func New(component string) *zap.SugaredLogger {
	return zap.S().Named(component)
}
