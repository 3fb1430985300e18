package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

const defaultCompletionTimeout = 20 * time.Second

// Completer produces a natural-language answer for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Router. Zero values select the defaults.
type Options struct {
	Classifier        *Classifier
	Completer         Completer
	Lookup            Lookup
	CompletionTimeout time.Duration
	Logger            *slog.Logger
}

// Router decides, for each turn, between continuing a flow, starting one,
// and answering a free-form question.
type Router struct {
	classifier *Classifier
	flows      map[Mode]Flow
	completer  Completer
	lookup     Lookup
	timeout    time.Duration
	tr         i18n.Translator
	log        *slog.Logger
}

func NewRouter(tr i18n.Translator, opts Options) *Router {
	if opts.Classifier == nil {
		opts.Classifier = NewClassifier(nil)
	}
	if opts.Lookup == nil {
		opts.Lookup = RuleLookup{}
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = defaultCompletionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Router{
		classifier: opts.Classifier,
		flows:      make(map[Mode]Flow),
		completer:  opts.Completer,
		lookup:     opts.Lookup,
		timeout:    opts.CompletionTimeout,
		tr:         tr,
		log:        opts.Logger,
	}

	for _, f := range []Flow{NewCustomerFlow(tr), NewWorkOrderFlow(tr), NewProductFlow(tr)} {
		r.flows[f.Mode()] = f
	}

	return r
}

// Route handles one utterance. prior is never modified; the returned
// result's State is what the caller must pass on the next turn.
func (r *Router) Route(ctx context.Context, utterance string, prior *ConversationState, snap *domain.Snapshot) *TurnResult {
	if prior.Active() {
		return r.continueFlow(utterance, prior, snap)
	}

	lowered := strings.ToLower(strings.TrimSpace(utterance))
	if lowered == "" {
		return &TurnResult{Reply: r.tr.T("assistant.empty"), Data: Payload{Kind: KindInformational}}
	}

	if intent := r.classifier.Classify(lowered); intent != IntentNone {
		mode := intentModes[intent]
		res := r.flows[mode].Start()
		recordTransition(mode, nil, res)
		r.log.Info("creation flow started", slog.String("mode", string(mode)))
		return res
	}

	return r.answer(ctx, utterance, snap)
}

func (r *Router) continueFlow(utterance string, prior *ConversationState, snap *domain.Snapshot) *TurnResult {
	var res *TurnResult

	flow, ok := r.flows[prior.Mode]
	switch {
	case IsCancel(utterance):
		res = cancelledResult(r.tr, prior.Mode)
	case !ok:
		res = failedResult(r.tr, prior.Mode, "unknown mode")
	default:
		res = flow.Advance(utterance, prior.Clone(), snap)
	}

	if res.Data.Kind == KindFlowFailed {
		r.log.Warn("creation flow reset",
			slog.String("mode", string(prior.Mode)),
			slog.Int("step", prior.Step),
			slog.String("reason", res.Data.Reason),
		)
	}

	recordTransition(prior.Mode, prior, res)
	return res
}

// answer never returns a state: collaborator failures must not start or resume a flow.
func (r *Router) answer(ctx context.Context, utterance string, snap *domain.Snapshot) (res *TurnResult) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("free-form query panicked", slog.Any("panic", p))
			res = r.fallback()
		}
	}()

	if r.completer == nil {
		r.log.Warn("free-form query without completion service")
		return r.fallback()
	}

	reply, err := r.complete(ctx, BuildQueryPrompt(utterance, snap))
	if err != nil {
		r.log.Error("completion failed", slog.Any("error", err))
		return r.fallback()
	}

	found, err := r.lookup.Find(ctx, utterance, snap)
	if err != nil {
		r.log.Error("structured lookup failed", slog.Any("error", err))
		return r.fallback()
	}

	return &TurnResult{
		Reply: reply,
		Data:  Payload{Kind: KindInformational, Lookup: found},
	}
}

func (r *Router) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type completion struct {
		text string
		err  error
	}

	// buffered so a completer that ignores ctx cannot leak a blocked sender
	done := make(chan completion, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- completion{err: fmt.Errorf("completion panicked: %v", p)}
			}
		}()
		text, err := r.completer.Complete(ctx, prompt)
		done <- completion{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("completion: %w", ctx.Err())
	case c := <-done:
		if c.err != nil {
			return "", c.err
		}
		reply := strings.TrimSpace(c.text)
		if reply == "" {
			return "", fmt.Errorf("empty completion")
		}
		return reply, nil
	}
}

func (r *Router) fallback() *TurnResult {
	return &TurnResult{
		Reply: r.tr.T("assistant.fallback"),
		Data:  Payload{Kind: KindInformational},
	}
}
