package dialog

import (
	"time"

	"github.com/pamonha-express/server/internal/assessment"
	"github.com/pamonha-express/server/internal/order"
)

// Session is everything the engine knows about one conversation key.
type Session struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	// Question is the current questionnaire step (1..4) while State is Questionnaire.
	Question int `json:"question,omitempty"`
	// Arm is fixed for the whole cycle once assigned.
	Arm Arm `json:"arm"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivity   time.Time `json:"last_activity"`
	CycleStartedAt time.Time `json:"cycle_started_at"`

	Ledger *order.Ledger `json:"ledger"`
	// PendingLine is the line waiting for a quantity in CapturingQuantity.
	PendingLine order.LineRef `json:"pending_line,omitempty"`
	// EditLine is the line chosen in ChoosingLineToEdit.
	EditLine     order.LineRef `json:"edit_line,omitempty"`
	CustomerName string        `json:"customer_name,omitempty"`

	Answers assessment.Answers `json:"answers"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		State:        Unassigned,
		CreatedAt:    now,
		LastActivity: now,
		Ledger:       order.NewLedger(),
	}
}

// Reset clears the cycle and leaves the session waiting for a new engagement.
func (s *Session) Reset() {
	*s = Session{
		ID:           s.ID,
		State:        AwaitingNewEngagement,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Ledger:       order.NewLedger(),
	}
}

// clearFlow drops order-entry bookkeeping that only makes sense mid-flow.
func (s *Session) clearFlow() {
	s.PendingLine = 0
	s.EditLine = 0
}
