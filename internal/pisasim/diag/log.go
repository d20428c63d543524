package diag

import "github.com/sirupsen/logrus"

// Logger is the diagnostic sink used throughout the simulator. It defaults
// to a package-level logrus logger but can be swapped out, e.g. by tests
// that want to capture output.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package-level diagnostic sink.
func SetLogger(l logrus.FieldLogger) {
	Logger = l
}

// Fatalf logs a fatal-path diagnostic without terminating the process; the
// caller is responsible for propagating the error. Mirrors the teacher's
// pattern of logging before re-raising rather than calling os.Exit here.
func Fatalf(err *Error, fields logrus.Fields) {
	Logger.WithFields(fields).WithField("code", err.Code.String()).Error(err.Message)
}
