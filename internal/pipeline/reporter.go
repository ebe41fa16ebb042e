package pipeline

// Reporter receives progress events from concurrent item workers. The
// pipeline only emits events; rendering and rate of redraw belong to the
// implementation.
type Reporter interface {
	SetTotal(n int)
	ItemStarted(name string, totalSteps int)
	StepStarted(name string, index int, step string)
	StepFinished(name string, index int, step string, ok bool)
	StepSkipped(name string, index int, step string)
	Output(name, line string)
	ItemFinished(name string, ok bool, detail string)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) SetTotal(int)                         {}
func (NopReporter) ItemStarted(string, int)              {}
func (NopReporter) StepStarted(string, int, string)      {}
func (NopReporter) StepFinished(string, int, string, bool) {}
func (NopReporter) StepSkipped(string, int, string)      {}
func (NopReporter) Output(string, string)                {}
func (NopReporter) ItemFinished(string, bool, string)    {}
