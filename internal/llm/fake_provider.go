package llm

import (
	"context"
	"sync"
)

// FakeProvider is a deterministic, in-memory Provider used by pipeline and
// gateway tests. Responses queues a sequence of canned (text, error) pairs,
// consumed in order; once exhausted, the last entry repeats.
type FakeProvider struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	name      string
}

type fakeResponse struct {
	text string
	err  error
}

func NewFakeProvider(name string) *FakeProvider {
	return &FakeProvider{name: name}
}

// QueueText appends a successful response.
func (f *FakeProvider) QueueText(text string) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{text: text})
	return f
}

// QueueError appends a failing response.
func (f *FakeProvider) QueueError(err error) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{err: err})
	return f
}

func (f *FakeProvider) Name() string { return f.name }

func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeProvider) Complete(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.responses) == 0 {
		return "{}", nil
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	r := f.responses[idx]
	return r.text, r.err
}
