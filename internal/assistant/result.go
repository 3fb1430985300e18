package assistant

import "encoding/json"

// ResultKind discriminates what a turn did.
type ResultKind string

const (
	KindInformational  ResultKind = "informational"
	KindFlowStarted    ResultKind = "flow_started"
	KindFlowContinuing ResultKind = "flow_continuing"
	KindReadyToCommit  ResultKind = "ready_to_commit"
	KindFlowCancelled  ResultKind = "flow_cancelled"
	KindFlowFailed     ResultKind = "flow_failed"
)

// ActionCreateCustomer asks the caller to persist a customer.
const ActionCreateCustomer = "criar_cliente"

// TurnResult is the outcome of one Route call.
type TurnResult struct {
	Reply  string             `json:"resposta"`
	Data   Payload            `json:"dados"`
	State  *ConversationState `json:"estado_conversacional"`
	Action *Action            `json:"acao,omitempty"`
}

// Payload describes the turn for display. Informational payloads serialize as
// the bare lookup result.
type Payload struct {
	Kind   ResultKind        `json:"tipo"`
	Mode   Mode              `json:"mode,omitempty"`
	Step   int               `json:"step,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	// Reason explains a rejected input or an early end of the flow.
	Reason string        `json:"reason,omitempty"`
	Lookup *LookupResult `json:"-"`
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Kind == KindInformational {
		if p.Lookup == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(p.Lookup)
	}

	type plain Payload
	return json.Marshal(plain(p))
}

// Action is a commit instruction. Fields is the wire form; Customer carries
// the same data typed for the persistence layer.
type Action struct {
	Type     string            `json:"tipo"`
	Fields   map[string]string `json:"dados"`
	Customer *CustomerRecord   `json:"-"`
}

func flowPayload(kind ResultKind, st *ConversationState) Payload {
	p := Payload{Kind: kind}
	if st != nil {
		p.Mode = st.Mode
		p.Step = st.Step
		if len(st.CollectedFields) > 0 {
			p.Fields = st.CollectedFields
		}
	}
	return p
}
