package logx

import (
	"io"
	"os"

	"github.com/pamonha-express/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Output overrides the destination; nil means stdout (production) or a console writer.
	Output io.Writer
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

func Init(opts ...LoggerOpts) {
	o := safe(opts...)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch {
	case o.Environment.Quiet():
		log.Logger = zerolog.Nop()
	case o.Environment.IsProduction():
		out := o.Output
		if out == nil {
			out = os.Stdout
		}
		log.Logger = zerolog.New(out).With().Timestamp().Str("service", "pamonha").Logger().Level(zerolog.InfoLevel)
	default:
		var out io.Writer = zerolog.NewConsoleWriter()
		if o.Output != nil {
			out = zerolog.ConsoleWriter{Out: o.Output, NoColor: true}
		}
		log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
	}
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
