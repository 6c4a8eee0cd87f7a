package digest

import (
	"context"
	"strings"
	"sync"

	"digestly/internal/domain/entity"
)

/* ─── completion fake ─── */

type fakeCompleter struct {
	mu    sync.Mutex
	calls []CompletionRequest
	fn    func(ctx context.Context, req CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return echoResponse(req)
}

func (f *fakeCompleter) Calls() []CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CompletionRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

// callsOf returns the recorded calls of one kind, in call order.
func (f *fakeCompleter) callsOf(kind string) []CompletionRequest {
	var out []CompletionRequest
	for _, c := range f.Calls() {
		if promptKind(c.Prompt) == kind {
			out = append(out, c)
		}
	}
	return out
}

func promptKind(prompt string) string {
	switch {
	case strings.HasSuffix(prompt, "Answer clearly and concisely:"):
		return "answer"
	case strings.Contains(prompt, "\n\nNotes:"):
		return "combine"
	case strings.Contains(prompt, "\n\nThis is part "):
		return "map"
	}
	return "unknown"
}

// mapChunkText extracts the chunk text from a map prompt.
func mapChunkText(prompt string) string {
	_, text, _ := strings.Cut(prompt, "\n\nText:\n")
	return text
}

// echoResponse is a deterministic completion: map calls return notes[<chunk>],
// combine calls return the whole prompt and answers return "answer".
func echoResponse(req CompletionRequest) (string, error) {
	switch promptKind(req.Prompt) {
	case "map":
		return "notes[" + mapChunkText(req.Prompt) + "]", nil
	case "combine":
		return req.Prompt, nil
	default:
		return "answer", nil
	}
}

/* ─── session fake ─── */

type fakeSessions struct {
	mu        sync.Mutex
	data      map[string]entity.SourceText
	putErr    error
	getErr    error
	deleteErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: make(map[string]entity.SourceText)}
}

func (s *fakeSessions) Put(_ context.Context, callerID string, src entity.SourceText) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[callerID] = src
	return nil
}

func (s *fakeSessions) Get(_ context.Context, callerID string) (entity.SourceText, bool, error) {
	if s.getErr != nil {
		return entity.SourceText{}, false, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.data[callerID]
	return src, ok, nil
}

func (s *fakeSessions) Delete(_ context.Context, callerID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, callerID)
	return nil
}

/* ─── creation repository fake ─── */

type fakeCreations struct {
	mu      sync.Mutex
	created []*entity.Creation
	err     error
	// failFirst fails this many Create calls with err before succeeding.
	failFirst int
	calls     int
}

func (r *fakeCreations) Create(_ context.Context, c *entity.Creation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil && (r.failFirst == 0 || r.calls <= r.failFirst) {
		return r.err
	}
	r.created = append(r.created, c)
	return nil
}

func (r *fakeCreations) ListByUser(_ context.Context, userID string, limit int) ([]*entity.Creation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Creation
	for _, c := range r.created {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCreations) ListPublished(_ context.Context, limit int) ([]*entity.Creation, error) {
	return nil, nil
}
