package panelstate

import (
	"encoding/json"
	"math"
	"slices"
)

// DefaultKey is the storage key the panel state record is persisted under.
const DefaultKey = "ralph.panelState"

// Requirements are the task-requirement toggles shown in the panel.
type Requirements struct {
	RunTests      bool `json:"runTests"`
	RunLinting    bool `json:"runLinting"`
	RunTypeCheck  bool `json:"runTypeCheck"`
	WriteTests    bool `json:"writeTests"`
	UpdateDocs    bool `json:"updateDocs"`
	CommitChanges bool `json:"commitChanges"`
}

// State is the persisted UI state of a view.
type State struct {
	CollapsedSections []string     `json:"collapsedSections"`
	ScrollPosition    float64      `json:"scrollPosition"`
	Requirements      Requirements `json:"requirements"`
}

// Default returns the state used when nothing has been persisted.
func Default() State {
	return State{
		CollapsedSections: []string{},
		ScrollPosition:    0,
		Requirements:      Requirements{},
	}
}

// Clone returns a copy of s that shares no slices with it.
func (s State) Clone() State {
	c := s
	c.CollapsedSections = slices.Clone(s.CollapsedSections)
	if c.CollapsedSections == nil {
		c.CollapsedSections = []string{}
	}
	return c
}

// Partial is a panel state update. Nil fields were not supplied.
type Partial struct {
	CollapsedSections *[]string
	ScrollPosition    *float64
	Requirements      *Requirements
}

// Empty reports whether no field was supplied.
func (p Partial) Empty() bool {
	return p.CollapsedSections == nil && p.ScrollPosition == nil && p.Requirements == nil
}

// ValidateRequirements coerces an arbitrary value into Requirements.
// raw may be a decoded JSON value, raw JSON bytes or a Requirements value.
// Fields that are not literally booleans become false; anything that is not an
// object yields the all-false record.
func ValidateRequirements(raw any) Requirements {
	switch v := raw.(type) {
	case Requirements:
		return v
	case *Requirements:
		if v == nil {
			return Requirements{}
		}
		return *v
	case json.RawMessage:
		return ValidateRequirements([]byte(v))
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return Requirements{}
		}
		return ValidateRequirements(decoded)
	case map[string]any:
		return Requirements{
			RunTests:      boolField(v, "runTests"),
			RunLinting:    boolField(v, "runLinting"),
			RunTypeCheck:  boolField(v, "runTypeCheck"),
			WriteTests:    boolField(v, "writeTests"),
			UpdateDocs:    boolField(v, "updateDocs"),
			CommitChanges: boolField(v, "commitChanges"),
		}
	default:
		return Requirements{}
	}
}

func boolField(m map[string]any, key string) bool {
	b, ok := m[key].(bool)
	return ok && b
}

// DecodePartial leniently reads a partial state sent by a view. Absent and
// null fields are not supplied; fields of the wrong shape are dropped rather
// than failing the whole update. Only a payload that is not a JSON object is
// an error.
func DecodePartial(raw []byte) (Partial, error) {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || string(raw) == "null" {
		return Partial{}, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Partial{}, err
	}

	var p Partial
	if v, ok := present(fields, "collapsedSections"); ok {
		if sections, ok := decodeSections(v); ok {
			p.CollapsedSections = &sections
		}
	}
	if v, ok := present(fields, "scrollPosition"); ok {
		if pos, ok := decodeScroll(v); ok {
			p.ScrollPosition = &pos
		}
	}
	if v, ok := present(fields, "requirements"); ok {
		req := ValidateRequirements(v)
		p.Requirements = &req
	}
	return p, nil
}

// decodeRecord reads a persisted record field by field, replacing each
// malformed field with its default independently of its siblings.
// malformed lists the fields that were replaced.
func decodeRecord(raw []byte) (state State, malformed []string) {
	state = Default()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return state, []string{"record"}
	}

	if v, ok := fields["collapsedSections"]; ok {
		if sections, ok := decodeSections(v); ok {
			state.CollapsedSections = sections
		} else {
			malformed = append(malformed, "collapsedSections")
		}
	}
	if v, ok := fields["scrollPosition"]; ok {
		if pos, ok := decodeScroll(v); ok {
			state.ScrollPosition = pos
		} else {
			malformed = append(malformed, "scrollPosition")
		}
	}
	if v, ok := fields["requirements"]; ok {
		var obj map[string]any
		if err := json.Unmarshal(v, &obj); err == nil && obj != nil {
			state.Requirements = ValidateRequirements(obj)
		} else {
			malformed = append(malformed, "requirements")
		}
	}
	return state, malformed
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

// decodeSections accepts a JSON array and keeps its string elements.
func decodeSections(v json.RawMessage) ([]string, bool) {
	var items []any
	if err := json.Unmarshal(v, &items); err != nil || items == nil {
		return nil, false
	}
	sections := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			sections = append(sections, s)
		}
	}
	return sections, true
}

// decodeScroll accepts a finite, non-negative JSON number.
func decodeScroll(v json.RawMessage) (float64, bool) {
	var pos float64
	if err := json.Unmarshal(v, &pos); err != nil {
		return 0, false
	}
	if math.IsNaN(pos) || math.IsInf(pos, 0) || pos < 0 {
		return 0, false
	}
	return pos, true
}
