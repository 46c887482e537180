package buildpipeline

// ChannelSink sends events on Ch; a nil channel drops them.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch != nil {
		s.Ch <- ev
	}
}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (f FuncSink) OnEvent(ev Event) {
	if f != nil {
		f(ev)
	}
}
