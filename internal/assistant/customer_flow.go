package assistant

import (
	"strings"

	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
)

const (
	stepName = iota + 1
	stepTaxID
	stepPhone
	stepConfirm
	stepChooseOptional
	stepEmail
	stepAddress
	stepNotes
)

var customerStepHints = map[int]string{
	stepName:           FieldName,
	stepTaxID:          FieldTaxID,
	stepPhone:          FieldPhone,
	stepConfirm:        "confirmacao",
	stepChooseOptional: "campo_opcional",
	stepEmail:          FieldEmail,
	stepAddress:        FieldAddress,
	stepNotes:          FieldNotes,
}

var affirmativeKeywords = []string{"sim", "confirmar", "ok", "certo", "cadastrar"}

var (
	emailKeywords   = []string{"email", "e-mail"}
	addressKeywords = []string{"endereco", "endereço"}
	notesKeywords   = []string{"observacoes", "observações", "observacao", "observação"}
)

type customerFlow struct {
	tr i18n.Translator
}

// NewCustomerFlow builds the eight-step customer registration flow.
func NewCustomerFlow(tr i18n.Translator) Flow {
	return &customerFlow{tr: tr}
}

func (f *customerFlow) Mode() Mode { return ModeCustomer }

func (f *customerFlow) Start() *TurnResult {
	st := &ConversationState{
		Mode:            ModeCustomer,
		Step:            stepName,
		CollectedFields: map[string]string{},
		RequiredFields:  append([]string(nil), customerRequired...),
		OptionalFields:  append([]string(nil), customerOptional...),
		NextFieldHint:   customerStepHints[stepName],
	}

	return &TurnResult{
		Reply: f.tr.T("customer.ask_name"),
		Data:  flowPayload(KindFlowStarted, st),
		State: st,
	}
}

func (f *customerFlow) Advance(utterance string, st *ConversationState, snap *domain.Snapshot) *TurnResult {
	draft, err := decodeCustomerDraft(st.CollectedFields)
	if err != nil {
		return failedResult(f.tr, ModeCustomer, err.Error())
	}

	input := strings.TrimSpace(utterance)

	switch st.Step {
	case stepName:
		if input == "" {
			return f.reprompt(st, "customer.name_required", ReasonBlank)
		}
		draft.name = input
		return f.moveTo(st, draft, stepTaxID, f.tr.Tf("customer.ask_tax_id", input))

	case stepTaxID:
		if reason := ValidateTaxID(input, snap); reason != "" {
			return f.reprompt(st, "customer.tax_id_"+string(reason), reason)
		}
		draft.taxID = input
		return f.moveTo(st, draft, stepPhone, f.tr.T("customer.ask_phone"))

	case stepPhone:
		if reason := ValidatePhone(input); reason != "" {
			return f.reprompt(st, "customer.phone_"+string(reason), reason)
		}
		draft.phone = input
		return f.moveTo(st, draft, stepConfirm, f.summary(draft))

	case stepConfirm:
		return f.confirm(strings.ToLower(input), st, draft)

	case stepChooseOptional:
		lowered := strings.ToLower(input)
		switch {
		case containsAny(lowered, emailKeywords...):
			return f.moveTo(st, draft, stepEmail, f.tr.T("customer.ask_email"))
		case containsAny(lowered, addressKeywords...):
			return f.moveTo(st, draft, stepAddress, f.tr.T("customer.ask_address"))
		case containsAny(lowered, notesKeywords...):
			return f.moveTo(st, draft, stepNotes, f.tr.T("customer.ask_notes"))
		default:
			return f.reprompt(st, "customer.ask_optional", "")
		}

	case stepEmail, stepAddress, stepNotes:
		if input == "" {
			return f.reprompt(st, optionalPromptKeys[st.Step], ReasonBlank)
		}
		value := input
		switch st.Step {
		case stepEmail:
			draft.email = &value
		case stepAddress:
			draft.address = &value
		default:
			draft.notes = &value
		}
		return f.moveTo(st, draft, stepConfirm, f.summary(draft))

	default:
		return failedResult(f.tr, ModeCustomer, "undefined step")
	}
}

var optionalPromptKeys = map[int]string{
	stepEmail:   "customer.ask_email",
	stepAddress: "customer.ask_address",
	stepNotes:   "customer.ask_notes",
}

func (f *customerFlow) confirm(lowered string, st *ConversationState, draft customerDraft) *TurnResult {
	switch {
	case containsAny(lowered, affirmativeKeywords...):
		return f.commit(draft)
	case containsAny(lowered, emailKeywords...):
		return f.moveTo(st, draft, stepEmail, f.tr.T("customer.ask_email"))
	case containsAny(lowered, addressKeywords...):
		return f.moveTo(st, draft, stepAddress, f.tr.T("customer.ask_address"))
	case containsAny(lowered, notesKeywords...):
		return f.moveTo(st, draft, stepNotes, f.tr.T("customer.ask_notes"))
	case strings.Contains(lowered, "mais"):
		return f.moveTo(st, draft, stepChooseOptional, f.tr.T("customer.ask_optional"))
	default:
		return f.reprompt(st, "customer.confirm_reprompt", "")
	}
}

func (f *customerFlow) commit(draft customerDraft) *TurnResult {
	record, ok := draft.record()
	if !ok {
		return failedResult(f.tr, ModeCustomer, "required fields missing at confirmation")
	}

	fields := record.Fields()
	return &TurnResult{
		Reply: f.tr.Tf("customer.ready", record.Name),
		Data:  Payload{Kind: KindReadyToCommit, Mode: ModeCustomer, Fields: fields},
		Action: &Action{
			Type:     ActionCreateCustomer,
			Fields:   fields,
			Customer: &record,
		},
	}
}

func (f *customerFlow) moveTo(st *ConversationState, draft customerDraft, step int, reply string) *TurnResult {
	st.Step = step
	st.CollectedFields = draft.fields()
	st.NextFieldHint = customerStepHints[step]

	return &TurnResult{
		Reply: reply,
		Data:  flowPayload(KindFlowContinuing, st),
		State: st,
	}
}

func (f *customerFlow) reprompt(st *ConversationState, key string, reason ValidationReason) *TurnResult {
	p := flowPayload(KindFlowContinuing, st)
	p.Reason = string(reason)

	return &TurnResult{
		Reply: f.tr.T(key),
		Data:  p,
		State: st,
	}
}

func (f *customerFlow) summary(d customerDraft) string {
	lines := []string{
		f.tr.T("customer.label.name") + ": " + d.name,
		f.tr.T("customer.label.tax_id") + ": " + d.taxID,
		f.tr.T("customer.label.phone") + ": " + d.phone,
	}
	if d.email != nil {
		lines = append(lines, f.tr.T("customer.label.email")+": "+*d.email)
	}
	if d.address != nil {
		lines = append(lines, f.tr.T("customer.label.address")+": "+*d.address)
	}
	if d.notes != nil {
		lines = append(lines, f.tr.T("customer.label.notes")+": "+*d.notes)
	}

	return f.tr.Tf("customer.summary", strings.Join(lines, "\n"))
}
