package ports

// OutputSink receives tagged stdout/stderr lines from running steps (§6 log
// line format `<stream>(<step>): <line>`). It is a separate, high-volume
// path from Logger: the CLI logger records structured operational events,
// while the sink just streams raw step output as it arrives.
type OutputSink interface {
	Line(step, stream, line string)
}
