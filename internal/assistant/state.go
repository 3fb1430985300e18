// Package assistant turns one user utterance plus the caller's conversation
// state into a reply, the next state, and optionally a commit action.
//
// Nothing here keeps state between calls. Callers persist ConversationState
// and must serialize turns of the same conversation.
package assistant

// Mode identifies which entity a creation flow is collecting.
type Mode string

const (
	ModeCustomer  Mode = "creating_customer"
	ModeWorkOrder Mode = "creating_work_order"
	ModeProduct   Mode = "creating_product"
)

// Field names used in collected_fields and in commit payloads.
const (
	FieldName    = "nome"
	FieldTaxID   = "cpfCnpj"
	FieldPhone   = "telefone"
	FieldEmail   = "email"
	FieldAddress = "endereco"
	FieldNotes   = "observacoes"
	FieldStatus  = "status"
)

// ConversationState is the progress of an in-flight creation flow. A nil
// state, or one without a mode, means no flow is active.
type ConversationState struct {
	Mode            Mode              `json:"mode,omitempty"`
	Step            int               `json:"step"`
	CollectedFields map[string]string `json:"collected_fields"`
	RequiredFields  []string          `json:"required_fields"`
	OptionalFields  []string          `json:"optional_fields"`
	NextFieldHint   string            `json:"next_field_hint,omitempty"`
}

// Active reports whether a flow is in progress.
func (s *ConversationState) Active() bool {
	return s != nil && s.Mode != ""
}

// Clone returns a deep copy so a turn never mutates the caller's value.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}

	clone := *s
	clone.CollectedFields = make(map[string]string, len(s.CollectedFields))
	for k, v := range s.CollectedFields {
		clone.CollectedFields[k] = v
	}
	clone.RequiredFields = append([]string(nil), s.RequiredFields...)
	clone.OptionalFields = append([]string(nil), s.OptionalFields...)

	return &clone
}

func (s *ConversationState) hint() string {
	if !s.Active() {
		return "idle"
	}
	return s.NextFieldHint
}
