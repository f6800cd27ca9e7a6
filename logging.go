package traj

import (
	"fmt"
	"io"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// NewLogger returns a logfmt logger to w, filtered at the provided level (debug, info, warn or
// error), with a UTC timestamp on each line.
func NewLogger(w io.Writer, lvl string) (kitlog.Logger, error) {
	opt, err := parseLevel(lvl)
	if err != nil {
		return nil, err
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC), nil
}

func parseLevel(lvl string) (level.Option, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	case "none":
		return level.AllowNone(), nil
	}
	return nil, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, lvl)
}
