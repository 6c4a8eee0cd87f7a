// Package main provides a one-shot CLI that summarizes a file, a URL or stdin
// and optionally answers follow-up questions about it.
// Usage: digest [-file F | -url U] [-origin O] [-detail D] [-ask Q]... [-output text|json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"digestly/internal/config"
	"digestly/internal/domain/entity"
	"digestly/internal/infra/completion"
	"digestly/internal/infra/promptfile"
	"digestly/internal/infra/session"
	"digestly/internal/infra/source"
	"digestly/internal/observability/logging"
	digestUC "digestly/internal/usecase/digest"
)

// cliCaller is the session key used for the single CLI run.
const cliCaller = "cli"

// questions collects repeated -ask flags.
type questions []string

func (q *questions) String() string { return strings.Join(*q, "; ") }

func (q *questions) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("question cannot be empty")
	}
	*q = append(*q, v)
	return nil
}

type options struct {
	file    string
	url     string
	origin  string
	detail  string
	asks    questions
	output  string
	timeout time.Duration
}

// DigestOutput is the JSON output format.
type DigestOutput struct {
	Summary string         `json:"summary"`
	Chunks  int            `json:"chunks"`
	Detail  string         `json:"detail"`
	Origin  string         `json:"origin"`
	Answers []AnswerOutput `json:"answers,omitempty"`
}

// AnswerOutput is one answered follow-up question.
type AnswerOutput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type resolver interface {
	Resolve(ctx context.Context, rawURL string) (entity.SourceText, error)
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "Read the text to summarize from this file")
	flag.StringVar(&opts.url, "url", "", "Fetch the text to summarize from this URL")
	flag.StringVar(&opts.origin, "origin", "", "Origin of -file/stdin text: document, transcript or metadata")
	flag.StringVar(&opts.detail, "detail", "medium", "Detail level: short, medium or detailed")
	flag.Var(&opts.asks, "ask", "Follow-up question about the text (repeatable)")
	flag.StringVar(&opts.output, "output", "text", "Output format: text or json")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Overall deadline for the run")
	flag.Parse()

	if err := opts.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: digest [-file F | -url U] [-origin O] [-detail D] [-ask Q]... [-output text|json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  digest -file notes.txt -detail short")
		fmt.Fprintln(os.Stderr, "  digest -url https://example.com/post -ask \"Who wrote it?\"")
		fmt.Fprintln(os.Stderr, "  cat transcript.txt | digest -origin transcript -output json")
		os.Exit(1)
	}

	logger := logging.NewCLILogger(os.Stderr)
	slog.SetDefault(logger)

	svc, err := newService()
	if err != nil {
		logger.Error("failed to initialize", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var res resolver
	if opts.url != "" {
		sourceCfg, err := source.LoadConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		res = source.NewFetcher(sourceCfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	out, err := run(ctx, svc, res, opts, os.Stdin)
	if err != nil {
		logger.Error("digest failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.output == "json" {
		err = outputJSON(os.Stdout, out)
	} else {
		err = outputText(os.Stdout, out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o options) validate() error {
	if o.file != "" && o.url != "" {
		return errors.New("use either -file or -url, not both")
	}
	if o.url != "" && o.origin != "" {
		return errors.New("-origin applies to -file or stdin input only")
	}
	if o.output != "text" && o.output != "json" {
		return fmt.Errorf("invalid output format %q (must be 'text' or 'json')", o.output)
	}
	if o.timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", o.timeout)
	}
	return nil
}

// newService builds a digest service with an in-memory session store and
// no creation history.
func newService() (*digestUC.Service, error) {
	aiCfg, err := config.LoadAIConfig()
	if err != nil {
		return nil, fmt.Errorf("load AI configuration: %w", err)
	}
	digestCfg, err := config.LoadDigestConfig()
	if err != nil {
		return nil, fmt.Errorf("load digest configuration: %w", err)
	}
	guard, err := completion.NewFromConfig(aiCfg)
	if err != nil {
		return nil, err
	}

	prompts := digestUC.NewPromptStore(digestUC.DefaultPrompts())
	if digestCfg.PromptsFile != "" {
		set, err := promptfile.Load(digestCfg.PromptsFile)
		if err != nil {
			return nil, fmt.Errorf("load prompts: %w", err)
		}
		prompts = digestUC.NewPromptStore(set)
	}

	return digestUC.NewService(guard, prompts, session.NewMemoryStore(session.MemoryConfig{}), nil, digestUC.Config{
		ChunkSize:      digestCfg.ChunkSize,
		MapConcurrency: digestCfg.MapConcurrency,
		MaxInputChars:  digestCfg.MaxInputChars,
	}), nil
}

// run summarizes the input selected by opts and answers every -ask question
// against it, in order.
func run(ctx context.Context, svc *digestUC.Service, res resolver, opts options, stdin io.Reader) (*DigestOutput, error) {
	src, label, err := readSource(ctx, res, opts, stdin)
	if err != nil {
		return nil, err
	}

	result, err := svc.Summarize(ctx, digestUC.SummarizeInput{
		CallerID: cliCaller,
		Source:   src,
		Detail:   entity.ParseDetailLevel(opts.detail),
		Label:    label,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	out := &DigestOutput{
		Summary: result.Summary,
		Chunks:  result.Chunks,
		Detail:  string(result.Detail),
		Origin:  result.Origin.String(),
	}
	for _, q := range opts.asks {
		answer, err := svc.Ask(ctx, cliCaller, q)
		if err != nil {
			return nil, fmt.Errorf("ask %q: %w", q, err)
		}
		out.Answers = append(out.Answers, AnswerOutput{Question: q, Answer: answer})
	}
	return out, nil
}

func readSource(ctx context.Context, res resolver, opts options, stdin io.Reader) (entity.SourceText, string, error) {
	if opts.url != "" {
		if err := entity.ValidateSourceURL(opts.url); err != nil {
			return entity.SourceText{}, "", err
		}
		if res == nil {
			return entity.SourceText{}, "", errors.New("no URL resolver configured")
		}
		src, err := res.Resolve(ctx, opts.url)
		if err != nil {
			return entity.SourceText{}, "", fmt.Errorf("fetch %s: %w", opts.url, err)
		}
		return src, opts.url, nil
	}

	origin, err := entity.ParseOrigin(opts.origin)
	if err != nil {
		return entity.SourceText{}, "", err
	}

	var data []byte
	label := opts.file
	if opts.file != "" {
		data, err = os.ReadFile(opts.file)
	} else {
		data, err = io.ReadAll(stdin)
		label = "stdin"
	}
	if err != nil {
		return entity.SourceText{}, "", fmt.Errorf("read input: %w", err)
	}
	return entity.NewSourceText(string(data), origin), label, nil
}

func outputText(w io.Writer, out *DigestOutput) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary (%s, %s, %d chunks)\n", out.Detail, out.Origin, out.Chunks)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	b.WriteString(out.Summary)
	b.WriteString("\n")
	for i, a := range out.Answers {
		fmt.Fprintf(&b, "\nQ%d: %s\n", i+1, a.Question)
		fmt.Fprintf(&b, "A%d: %s\n", i+1, a.Answer)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func outputJSON(w io.Writer, out *DigestOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
