package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/delivery"
	"github.com/higress-group/docqa-bot/fusion"
	"github.com/higress-group/docqa-bot/llm"
	"github.com/higress-group/docqa-bot/memory"
	"github.com/higress-group/docqa-bot/metrics"
	"github.com/higress-group/docqa-bot/schema"
)

// Embedder is the subset of embedding.Provider the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, sentences []string) ([][]float32, error)
}

// Searcher is the subset of vectordb.Provider the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error)
}

// Options are the pipeline knobs taken from config.
type Options struct {
	TopK             int
	MaxMessageLength int
	TypingInterval   time.Duration
	Timeouts         config.TimeoutConfig
	Messages         config.MessagesConfig
}

// OptionsFromConfig extracts pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TopK:             cfg.Pipeline.TopK,
		MaxMessageLength: cfg.Pipeline.MaxMessageLength,
		TypingInterval:   cfg.Pipeline.TypingInterval,
		Timeouts:         cfg.Timeouts,
		Messages:         cfg.Messages,
	}
}

// Orchestrator answers one question at a time per call. It holds no per-request
// state, so Handle may run concurrently for any number of sessions.
type Orchestrator struct {
	Embedder Embedder
	Store    Searcher
	History  memory.ConversationStore
	LLM      llm.Provider
	Evidence *delivery.EvidenceResolver
	Tokens   *llm.TokenCounter
	Opts     Options

	// OnTransition, when set, observes every state change. Used by tests.
	OnTransition func(sessionID string, from, to State)
}

// request carries the per-question bookkeeping.
type request struct {
	sessionID string
	state     State
	log       *logger.ContextLogger
}

func (o *Orchestrator) enter(r *request, to State) {
	if o.OnTransition != nil {
		o.OnTransition(r.sessionID, r.state, to)
	}
	r.log.Debugf("state %s -> %s", r.state, to)
	r.state = to
}

// Handle runs the full pipeline for one question and reports through sink. Every
// failure produces a user-visible message; history is only extended after the
// answer text has been delivered.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, question string, sink delivery.Sink) (Outcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return OutcomeIgnored, nil
	}
	r := &request{
		sessionID: sessionID,
		state:     StateIdle,
		log:       logger.WithContext(map[string]interface{}{"request_id": uuid.NewString(), "session": sessionID}),
	}
	r.log.Infof("question received (%d chars)", len(question))

	outcome, err := o.run(ctx, r, question, sink)
	if err != nil {
		o.enter(r, StateError)
		r.log.Errorf("question failed: %v", err)
		if serr := sink.SendText(ctx, fmt.Sprintf(o.messages().Failure, err)); serr != nil {
			r.log.Warnf("failure message not sent: %v", serr)
		}
	}
	o.enter(r, StateIdle)
	metrics.IncOutcome(outcome.String())
	return outcome, err
}

func (o *Orchestrator) run(ctx context.Context, r *request, question string, sink delivery.Sink) (Outcome, error) {
	o.enter(r, StateEmbedding)
	vector, err := o.embed(ctx, question)
	if err != nil {
		return OutcomeFailed, err
	}

	o.enter(r, StateRetrieving)
	matches, err := o.search(ctx, vector)
	if err != nil {
		return OutcomeFailed, err
	}

	fused, ok := fusion.Fuse(matches)
	if !ok {
		o.enter(r, StateNoMatch)
		r.log.Infof("no relevant records")
		if err := sink.SendText(ctx, o.messages().NoMatch); err != nil {
			r.log.Warnf("no-match message not sent: %v", err)
		}
		return OutcomeNoMatch, nil
	}
	o.enter(r, StateFusing)
	r.log.Debugf("fused %d matches, evidence pages %v", len(matches), fused.EvidencePages)

	o.enter(r, StatePrompting)
	history, err := o.History.Read(ctx, r.sessionID)
	if err != nil {
		r.log.Warnf("history read failed, answering without it: %v", err)
		history = nil
	}
	prompt := llm.BuildPrompt(question, fused.CombinedText, memory.Serialize(history))
	if o.Tokens != nil {
		n := o.Tokens.Count(prompt)
		metrics.ObservePromptTokens(n)
		r.log.Debugf("prompt tokens: %d", n)
	}

	o.enter(r, StateGenerating)
	answer, err := o.generate(ctx, r, prompt, sink)
	if err != nil {
		return OutcomeFailed, err
	}

	o.enter(r, StateDelivering)
	if _, err := delivery.SendChunks(ctx, sink, answer, o.Opts.MaxMessageLength); err != nil {
		// the chat is unreachable, a failure notice would not arrive either
		r.log.Errorf("answer delivery failed: %v", err)
		return OutcomeFailed, nil
	}
	if o.Evidence != nil && len(fused.EvidencePages) > 0 {
		n, err := o.Evidence.Resolve(ctx, fused.EvidencePages, sink)
		if err != nil {
			r.log.Warnf("evidence delivered %d/%d pages: %v", n, len(fused.EvidencePages), err)
		}
	}

	if err := o.History.Append(ctx, r.sessionID, schema.ConversationTurn{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	}); err != nil {
		r.log.Warnf("history not updated: %v", err)
	}
	metrics.SetSessions(o.History.Sessions())
	return OutcomeAnswered, nil
}

func (o *Orchestrator) embed(ctx context.Context, question string) (vec []float32, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage("embedding", start, err) }()

	cctx, cancel := withTimeout(ctx, o.Opts.Timeouts.Embedding)
	defer cancel()
	vectors, err := o.Embedder.Embed(cctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question failed, err: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question failed, err: %w: got %d vectors", schema.ErrUpstreamUnavailable, len(vectors))
	}
	return vectors[0], nil
}

func (o *Orchestrator) search(ctx context.Context, vector []float32) (matches []schema.RetrievedMatch, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage("retrieving", start, err) }()

	cctx, cancel := withTimeout(ctx, o.Opts.Timeouts.Retrieval)
	defer cancel()
	matches, err = o.Store.Search(cctx, vector, o.Opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("search knowledge base failed, err: %w", err)
	}
	if o.Opts.TopK > 0 && len(matches) > o.Opts.TopK {
		matches = matches[:o.Opts.TopK]
	}
	metrics.ObserveMatches(len(matches))
	return matches, nil
}

// generate calls the model while a progress task keeps the chat informed. The task
// is torn down on every return path.
func (o *Orchestrator) generate(ctx context.Context, r *request, prompt string, sink delivery.Sink) (answer string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStage("generating", start, err) }()

	stop := startProgress(ctx, o.typingInterval(), sink, r.log)
	defer stop()

	cctx, cancel := withTimeout(ctx, o.Opts.Timeouts.Completion)
	defer cancel()
	answer, err = o.LLM.GenerateCompletion(cctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer failed, err: %w", err)
	}
	return answer, nil
}

// messages fills unset user-visible strings with the defaults.
func (o *Orchestrator) messages() config.MessagesConfig {
	m := o.Opts.Messages
	d := config.Defaults().Messages
	if m.NoMatch == "" {
		m.NoMatch = d.NoMatch
	}
	if m.Failure == "" {
		m.Failure = d.Failure
	}
	return m
}

func (o *Orchestrator) typingInterval() time.Duration {
	if o.Opts.TypingInterval > 0 {
		return o.Opts.TypingInterval
	}
	return config.DefaultTypingInterval
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
