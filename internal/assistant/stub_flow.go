package assistant

import (
	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

// stubFlow asks its opening question and then ends the flow, telling the
// user the feature is not available yet.
type stubFlow struct {
	mode           Mode
	hint           string
	askKey         string
	unavailableKey string
	tr             i18n.Translator
}

func NewWorkOrderFlow(tr i18n.Translator) Flow {
	return &stubFlow{
		mode:           ModeWorkOrder,
		hint:           "cliente",
		askKey:         "work_order.ask_start",
		unavailableKey: "work_order.unavailable",
		tr:             tr,
	}
}

func NewProductFlow(tr i18n.Translator) Flow {
	return &stubFlow{
		mode:           ModeProduct,
		hint:           "nome",
		askKey:         "product.ask_start",
		unavailableKey: "product.unavailable",
		tr:             tr,
	}
}

func (f *stubFlow) Mode() Mode { return f.mode }

func (f *stubFlow) Start() *TurnResult {
	st := &ConversationState{
		Mode:            f.mode,
		Step:            1,
		CollectedFields: map[string]string{},
		RequiredFields:  []string{},
		OptionalFields:  []string{},
		NextFieldHint:   f.hint,
	}

	return &TurnResult{
		Reply: f.tr.T(f.askKey),
		Data:  flowPayload(KindFlowStarted, st),
		State: st,
	}
}

func (f *stubFlow) Advance(_ string, st *ConversationState, _ *domain.Snapshot) *TurnResult {
	if st.Step != 1 || len(st.CollectedFields) > 0 {
		return failedResult(f.tr, f.mode, "undefined step")
	}

	return &TurnResult{
		Reply: f.tr.T(f.unavailableKey),
		Data:  Payload{Kind: KindFlowCancelled, Mode: f.mode, Reason: "unavailable"},
	}
}
