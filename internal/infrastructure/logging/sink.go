package logging

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/zonepipe/zonepipe/internal/ports"
)

// ZerologSink multiplexes concurrent per-step stdout/stderr onto a single
// writer, tagged `<stream>(<step>): <line>` (§6). It is deliberately a
// different stack than the Logger adapter: step output is high-volume and
// untyped, whereas the CLI logger emits structured, low-volume operational
// events. zerolog's console writer gives cheap level-less line formatting
// without pulling the charmbracelet/log dependency into the hot path.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink builds a sink writing tagged lines to w.
func NewZerologSink(w io.Writer) *ZerologSink {
	return &ZerologSink{logger: zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName}})}
}

// Line implements ports.OutputSink.
func (s *ZerologSink) Line(step, stream, line string) {
	s.logger.Log().Msg(stream + "(" + step + "): " + line)
}

var _ ports.OutputSink = (*ZerologSink)(nil)
