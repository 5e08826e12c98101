package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the wire form of an event: the kind tag selects the payload
// type on decode.
type envelope struct {
	ID        int64           `json:"id"`
	Source    Source          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the event with its payload kind tag.
func (e *Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %d has no payload", e.ID)
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Payload.Kind(), err)
	}
	return json.Marshal(envelope{
		ID:        e.ID,
		Source:    e.Source,
		Timestamp: e.Timestamp,
		Kind:      e.Payload.Kind(),
		Payload:   raw,
	})
}

// UnmarshalJSON decodes an event, selecting the payload type from the kind
// tag. Unknown kinds are an error: the payload set is closed.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	payload, err := decodePayload(env.Kind, env.Payload)
	if err != nil {
		return err
	}
	e.ID = env.ID
	e.Source = env.Source
	e.Timestamp = env.Timestamp
	e.Payload = payload
	return nil
}

// ParsePayload decodes a raw JSON payload of the given kind. Used by action
// parsers that receive kind-tagged payloads from model output.
func ParsePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	return decodePayload(kind, raw)
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	ptr := newPayload(kind)
	if ptr == nil {
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, ptr); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
	}
	return deref(ptr), nil
}

// newPayload returns a pointer to the zero payload for the kind, for
// json.Unmarshal to fill.
func newPayload(kind Kind) any {
	switch kind {
	case KindSystemMessageAction:
		return &SystemMessageAction{}
	case KindMessageAction:
		return &MessageAction{}
	case KindThinkAction:
		return &ThinkAction{}
	case KindRunCommandAction:
		return &RunCommandAction{}
	case KindKillCommandAction:
		return &KillCommandAction{}
	case KindReadFileAction:
		return &ReadFileAction{}
	case KindWriteFileAction:
		return &WriteFileAction{}
	case KindEditFileAction:
		return &EditFileAction{}
	case KindBrowseURLAction:
		return &BrowseURLAction{}
	case KindBrowseInteractiveAction:
		return &BrowseInteractiveAction{}
	case KindRunCodeCellAction:
		return &RunCodeCellAction{}
	case KindDelegateAction:
		return &DelegateAction{}
	case KindFinishAction:
		return &FinishAction{}
	case KindCondensationAction:
		return &CondensationAction{}
	case KindCommandObservation:
		return &CommandObservation{}
	case KindFileReadObservation:
		return &FileReadObservation{}
	case KindFileWriteObservation:
		return &FileWriteObservation{}
	case KindBrowserObservation:
		return &BrowserObservation{}
	case KindCodeCellObservation:
		return &CodeCellObservation{}
	case KindDelegateObservation:
		return &DelegateObservation{}
	case KindErrorObservation:
		return &ErrorObservation{}
	case KindNullObservation:
		return &NullObservation{}
	case KindMaskedObservation:
		return &MaskedObservation{}
	case KindSummaryObservation:
		return &SummaryObservation{}
	}
	return nil
}

// deref converts the filled pointer back to the value payload the rest of
// the package works with.
func deref(ptr any) Payload {
	switch v := ptr.(type) {
	case *SystemMessageAction:
		return *v
	case *MessageAction:
		return *v
	case *ThinkAction:
		return *v
	case *RunCommandAction:
		return *v
	case *KillCommandAction:
		return *v
	case *ReadFileAction:
		return *v
	case *WriteFileAction:
		return *v
	case *EditFileAction:
		return *v
	case *BrowseURLAction:
		return *v
	case *BrowseInteractiveAction:
		return *v
	case *RunCodeCellAction:
		return *v
	case *DelegateAction:
		return *v
	case *FinishAction:
		return *v
	case *CondensationAction:
		return *v
	case *CommandObservation:
		return *v
	case *FileReadObservation:
		return *v
	case *FileWriteObservation:
		return *v
	case *BrowserObservation:
		return *v
	case *CodeCellObservation:
		return *v
	case *DelegateObservation:
		return *v
	case *ErrorObservation:
		return *v
	case *NullObservation:
		return *v
	case *MaskedObservation:
		return *v
	case *SummaryObservation:
		return *v
	}
	panic(fmt.Sprintf("event: non-payload pointer %T", ptr))
}
