package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digestly/internal/domain/entity"
	"digestly/internal/infra/completion"
	"digestly/internal/infra/session"
	digestUC "digestly/internal/usecase/digest"
)

type fakeResolver struct {
	src  entity.SourceText
	err  error
	seen string
}

func (f *fakeResolver) Resolve(_ context.Context, rawURL string) (entity.SourceText, error) {
	f.seen = rawURL
	return f.src, f.err
}

func newTestService() *digestUC.Service {
	return digestUC.NewService(completion.Echo{}, nil, session.NewMemoryStore(session.MemoryConfig{}), nil, digestUC.Config{
		ChunkSize:      1000,
		MapConcurrency: 2,
	})
}

func TestRun_Stdin(t *testing.T) {
	opts := options{detail: "short", output: "text", timeout: time.Minute}

	out, err := run(context.Background(), newTestService(), nil, opts, strings.NewReader("hello world"))
	require.NoError(t, err)

	assert.Contains(t, out.Summary, "hello world")
	assert.Equal(t, 1, out.Chunks)
	assert.Equal(t, "short", out.Detail)
	assert.Equal(t, "document", out.Origin)
	assert.Empty(t, out.Answers)
}

func TestRun_FileWithQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.txt")
	require.NoError(t, os.WriteFile(path, []byte("the speaker talked about gophers"), 0o600))

	opts := options{
		file:    path,
		origin:  "transcript",
		detail:  "detailed",
		asks:    questions{"What was the topic?", "Who spoke?"},
		timeout: time.Minute,
	}

	out, err := run(context.Background(), newTestService(), nil, opts, strings.NewReader("ignored"))
	require.NoError(t, err)

	assert.Contains(t, out.Summary, "gophers")
	assert.Equal(t, "transcript", out.Origin)
	assert.Equal(t, "detailed", out.Detail)
	require.Len(t, out.Answers, 2)
	assert.Equal(t, "What was the topic?", out.Answers[0].Question)
	assert.Equal(t, "Who spoke?", out.Answers[1].Question)
	assert.NotEmpty(t, out.Answers[0].Answer)
}

func TestRun_URL(t *testing.T) {
	res := &fakeResolver{src: entity.NewSourceText("Title: Gophers\nDescription: a talk", entity.OriginMetadata)}
	opts := options{url: "https://www.youtube.com/watch?v=abc", timeout: time.Minute}

	out, err := run(context.Background(), newTestService(), res, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc", res.seen)
	assert.Equal(t, "metadata", out.Origin)
	assert.Equal(t, "short", out.Detail)
}

func TestRun_Errors(t *testing.T) {
	fetchErr := errors.New("connection refused")

	tests := []struct {
		name  string
		opts  options
		res   resolver
		stdin string
		want  error
	}{
		{
			name:  "empty stdin",
			opts:  options{},
			stdin: "   \n",
			want:  digestUC.ErrEmptyInput,
		},
		{
			name:  "invalid origin",
			opts:  options{origin: "podcast"},
			stdin: "text",
			want:  entity.ErrInvalidOrigin,
		},
		{
			name: "resolver failure",
			opts: options{url: "https://example.com/post"},
			res:  &fakeResolver{err: fetchErr},
			want: fetchErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(context.Background(), newTestService(), tt.res, tt.opts, strings.NewReader(tt.stdin))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_InvalidURL(t *testing.T) {
	res := &fakeResolver{}
	_, err := run(context.Background(), newTestService(), res, options{url: "ftp://example.com"}, nil)

	require.Error(t, err)
	assert.Empty(t, res.seen, "resolver must not be called for an invalid URL")
}

func TestRun_MissingFile(t *testing.T) {
	opts := options{file: filepath.Join(t.TempDir(), "missing.txt")}
	_, err := run(context.Background(), newTestService(), nil, opts, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr string
	}{
		{name: "stdin defaults", opts: options{output: "text", timeout: time.Minute}},
		{name: "json output", opts: options{file: "a.txt", output: "json", timeout: time.Minute}},
		{name: "file and url", opts: options{file: "a.txt", url: "https://x.test", output: "text", timeout: time.Minute}, wantErr: "not both"},
		{name: "origin with url", opts: options{url: "https://x.test", origin: "transcript", output: "text", timeout: time.Minute}, wantErr: "-origin"},
		{name: "bad output", opts: options{output: "yaml", timeout: time.Minute}, wantErr: "invalid output format"},
		{name: "zero timeout", opts: options{output: "text"}, wantErr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQuestions_Set(t *testing.T) {
	var q questions
	require.NoError(t, q.Set("first?"))
	require.NoError(t, q.Set("second?"))
	assert.Error(t, q.Set("  "))

	assert.Equal(t, questions{"first?", "second?"}, q)
	assert.Equal(t, "first?; second?", q.String())
}

func TestOutputText(t *testing.T) {
	out := &DigestOutput{
		Summary: "- point one",
		Chunks:  3,
		Detail:  "medium",
		Origin:  "document",
		Answers: []AnswerOutput{{Question: "Why?", Answer: "Because."}},
	}

	var buf bytes.Buffer
	require.NoError(t, outputText(&buf, out))

	got := buf.String()
	assert.Contains(t, got, "Summary (medium, document, 3 chunks)")
	assert.Contains(t, got, "- point one")
	assert.Contains(t, got, "Q1: Why?")
	assert.Contains(t, got, "A1: Because.")
}

func TestOutputJSON(t *testing.T) {
	out := &DigestOutput{Summary: "s", Chunks: 1, Detail: "short", Origin: "transcript"}

	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, out))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "s", decoded["summary"])
	assert.Equal(t, float64(1), decoded["chunks"])
	assert.Equal(t, "transcript", decoded["origin"])
	assert.NotContains(t, decoded, "answers")
}
