package bridge

// Logger receives the bridge's diagnostics as key/value pairs.
// *zap.SugaredLogger and *logging.Logger both satisfy it.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}
