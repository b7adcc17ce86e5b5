package publisher

import "context"

// StubAdapter stands in for platforms that are not wired up yet. It
// settles immediately with a "coming soon" failure so batches that
// include it still report one result per requested platform.
type StubAdapter struct {
	name string
}

func NewStubAdapter(name string) *StubAdapter {
	return &StubAdapter{name: name}
}

func (s *StubAdapter) Platform() string {
	return s.name
}

func (s *StubAdapter) Publish(ctx context.Context, req *Request) Result {
	return failure(s.name, s.name+" publishing is coming soon")
}
