package assistant

import (
	"strings"

	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

// Flow collects the fields of one entity kind over several turns.
type Flow interface {
	Mode() Mode
	// Start returns the opening question and the initial state.
	Start() *TurnResult
	// Advance consumes one utterance. st is a private copy the flow may modify.
	Advance(utterance string, st *ConversationState, snap *domain.Snapshot) *TurnResult
}

var cancelKeywords = map[string]struct{}{
	"cancelar": {},
	"cancela":  {},
	"parar":    {},
	"sair":     {},
}

// IsCancel reports whether the whole utterance is a cancellation keyword.
func IsCancel(utterance string) bool {
	_, ok := cancelKeywords[strings.ToLower(strings.TrimSpace(utterance))]
	return ok
}

var transitionRecorder = func(mode Mode, from, to string) {}

// RegisterTransitionRecorder allows external packages to observe flow transitions.
// from and to are field hints, "idle", or the result kind that ended the flow.
func RegisterTransitionRecorder(recorder func(mode Mode, from, to string)) {
	if recorder == nil {
		transitionRecorder = func(Mode, string, string) {}
		return
	}

	transitionRecorder = recorder
}

func recordTransition(mode Mode, prior *ConversationState, res *TurnResult) {
	to := string(res.Data.Kind)
	if res.State.Active() {
		to = res.State.NextFieldHint
	}
	transitionRecorder(mode, prior.hint(), to)
}

func cancelledResult(tr i18n.Translator, mode Mode) *TurnResult {
	return &TurnResult{
		Reply: tr.T("assistant.cancelled"),
		Data:  Payload{Kind: KindFlowCancelled, Mode: mode},
	}
}

func failedResult(tr i18n.Translator, mode Mode, reason string) *TurnResult {
	return &TurnResult{
		Reply: tr.T("assistant.flow_error"),
		Data:  Payload{Kind: KindFlowFailed, Mode: mode, Reason: reason},
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
