package web2pdf

// ProgressSink receives capture progress at well-defined milestones:
// navigation done, content settled, each segment captured, composition
// started. It is a pure side-effect boundary and never influences control
// flow; a nil sink is valid and reports nothing.
type ProgressSink interface {
	Progress(percent int, message string)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(percent int, message string)

// Progress implements ProgressSink.
func (f ProgressFunc) Progress(percent int, message string) {
	f(percent, message)
}

// noopProgress discards all updates.
type noopProgress struct{}

func (noopProgress) Progress(int, string) {}

// WithProgress sets the sink that receives capture milestones.
func WithProgress(sink ProgressSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.progress = sink
		}
	}
}
