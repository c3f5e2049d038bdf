// Package diag centralizes the diagnostic logger shared by the three CLI binaries, so that
// an I/O, parse or codegen failure in any stage is reported with the same "stage/file/cause"
// shape instead of each cmd/*/main.go hand-rolling its own fmt.Printf format.
package diag

import (
	"github.com/caarlos0/env/v6"
	"github.com/sirupsen/logrus"
)

// Env holds the handful of settings every stage is allowed to pick up from the process
// environment. There is deliberately very little here: the tool is otherwise driven
// entirely by its CLI arguments.
type Env struct {
	LogLevel string `env:"JACKC_LOG_LEVEL" envDefault:"info"`
}

// NewLogger builds a logrus.Logger whose level is taken from JACKC_LOG_LEVEL (falling back
// to "info" on a missing or malformed value), shared by 'hack_assembler', 'vm_translator'
// and 'jack_compiler'.
func NewLogger() *logrus.Logger {
	cfg := Env{}
	env.Parse(&cfg) // best-effort: a malformed env var just leaves cfg.LogLevel at its default

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// Fail logs a single structured error line identifying the failing 'stage', the 'file'
// being processed and the underlying 'cause', then returns the CLI exit status every
// Handler already uses for a fatal error. No stack trace is ever attached.
func Fail(logger *logrus.Logger, stage, file string, cause error) int {
	logger.WithFields(logrus.Fields{
		"stage": stage,
		"file":  file,
	}).Error(cause)
	return -1
}
