package core

// Logger is the leveled logging surface used by rendering code.
// *log.Logger from github.com/charmbracelet/log satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Sampler provides random sampling for rendering algorithms
type Sampler interface {
	Get1D() float32
	Get2D() Vec2
}

type discardLogger struct{}

func (discardLogger) Debugf(string, ...interface{}) {}
func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Warnf(string, ...interface{})  {}

// DiscardLogger returns a Logger that drops everything
func DiscardLogger() Logger {
	return discardLogger{}
}
