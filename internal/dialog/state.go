package dialog

import (
	"fmt"
)

// State is the position of a session in the conversation graph.
type State int

const (
	Unassigned State = iota
	RuleBasedMenu
	Generative
	OrderEntry
	CapturingQuantity
	AskMoreItems
	CapturingName
	ModifyOrder
	ChoosingLineToEdit
	EditingQuantity
	ChoosingLineToDelete
	Evaluation
	Questionnaire
	AwaitingNewEngagement
)

var stateNames = map[State]string{
	Unassigned:            "unassigned",
	RuleBasedMenu:         "rule_based_menu",
	Generative:            "generative",
	OrderEntry:            "order_entry",
	CapturingQuantity:     "capturing_quantity",
	AskMoreItems:          "ask_more_items",
	CapturingName:         "capturing_name",
	ModifyOrder:           "modify_order",
	ChoosingLineToEdit:    "choosing_line_to_edit",
	EditingQuantity:       "editing_quantity",
	ChoosingLineToDelete:  "choosing_line_to_delete",
	Evaluation:            "evaluation",
	Questionnaire:         "questionnaire",
	AwaitingNewEngagement: "awaiting_new_engagement",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Idle states start a new cycle on the next turn.
func (s State) Idle() bool {
	return s == Unassigned || s == AwaitingNewEngagement
}

// Active states belong to a running cycle and are transcribed.
func (s State) Active() bool {
	return !s.Idle() && s != Evaluation && s != Questionnaire
}

func (s State) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return []byte(name), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", string(b))
}

// Arm is the engine variant serving a cycle.
type Arm int

const (
	ArmUnset Arm = iota
	RuleBased
	GenerativeArm
)

// Label is the arm name written into transcripts and questionnaires.
func (a Arm) Label() string {
	switch a {
	case RuleBased:
		return "tradicional"
	case GenerativeArm:
		return "inteligente"
	default:
		return "Desconhecido"
	}
}

func (a Arm) MarshalText() ([]byte, error) {
	switch a {
	case RuleBased:
		return []byte("rule_based"), nil
	case GenerativeArm:
		return []byte("generative"), nil
	default:
		return []byte(""), nil
	}
}

func (a *Arm) UnmarshalText(b []byte) error {
	switch string(b) {
	case "rule_based":
		*a = RuleBased
	case "generative":
		*a = GenerativeArm
	case "":
		*a = ArmUnset
	default:
		return fmt.Errorf("unknown arm %q", string(b))
	}
	return nil
}
