package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = newLogger(os.Stdout, logrus.InfoLevel, false)
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel, false)
)

func newLogger(out *os.File, level logrus.Level, json bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	l.SetLevel(level)
	return l
}

// InitLogger rebuilds both loggers. level is a logrus level name ("debug", "info", ...);
// format is "text" or "json".
func InitLogger(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	json := strings.EqualFold(format, "json")

	InfoLogger = newLogger(os.Stdout, lvl, json)

	// ErrorLogger stays at error unless a stricter level is configured.
	errLvl := logrus.ErrorLevel
	if lvl < errLvl {
		errLvl = lvl
	}
	ErrorLogger = newLogger(os.Stderr, errLvl, json)

	if err != nil {
		InfoLogger.Warnf("Unknown log level %q, using info", level)
	}
}
