package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pamonha-express/server/internal/agent/prompts"
	"github.com/pamonha-express/server/internal/assessment"
	errx "github.com/pamonha-express/server/internal/core/error"
	"github.com/pamonha-express/server/internal/metrics"
	"github.com/pamonha-express/server/internal/order"
	"github.com/pamonha-express/server/internal/transcript"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// Button is a selectable answer attached to a reply.
type Button struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Reply is what the engine answers to one turn.
type Reply struct {
	Text    string   `json:"reply"`
	Buttons []Button `json:"buttons,omitempty"`
}

func text(s string) Reply {
	return Reply{Text: s}
}

// Generator relays generative-arm turns.
type Generator interface {
	SendTurn(ctx context.Context, sessionID, text string) (string, error)
	EndConversation(ctx context.Context, sessionID string)
}

// Recorder buffers and flushes cycle transcripts.
type Recorder interface {
	BeginCycle(sessionID string)
	Record(sessionID string, speaker transcript.Speaker, text string)
	EndCycle(sessionID string)
	Flush(ctx context.Context, sessionID, arm string) (string, error)
	Discard(sessionID string)
}

// AssessmentSaver persists completed questionnaires.
type AssessmentSaver interface {
	Save(ctx context.Context, sessionID, arm string, answers assessment.Answers) (string, error)
}

type Deps struct {
	Store       Store
	Catalog     *order.Catalog
	Generator   Generator
	Recorder    Recorder
	Assessments AssessmentSaver
	Picker      ArmPicker
}

// Engine runs the per-session state machine. Turns of one session are
// serialized; turns of different sessions run concurrently.
type Engine struct {
	Deps
	locks *keyedLocks
	now   func() time.Time
}

// persistTimeout bounds writes made after the turn's own deadline may have
// passed.
const persistTimeout = 5 * time.Second

// detached returns a context for session and archive writes that keeps ctx's
// values and outlives its deadline.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(d Deps, opts ...Option) (*Engine, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("dialog: nil session store")
	case d.Catalog == nil:
		return nil, errors.New("dialog: nil catalog")
	case d.Generator == nil:
		return nil, errors.New("dialog: nil generator")
	case d.Recorder == nil:
		return nil, errors.New("dialog: nil transcript recorder")
	case d.Assessments == nil:
		return nil, errors.New("dialog: nil assessment saver")
	case d.Picker == nil:
		return nil, errors.New("dialog: nil arm picker")
	}
	e := &Engine{Deps: d, locks: newKeyedLocks(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// turn is one inbound message. raw keeps the user's casing for names,
// answers and generative input; norm is what keywords are matched against.
type turn struct {
	raw  string
	norm string
}

func newTurn(s string) turn {
	raw := strings.TrimSpace(s)
	return turn{raw: raw, norm: strings.ToLower(raw)}
}

func (t turn) isExit() bool {
	return t.norm == prompts.ExitCommand
}

// HandleTurn routes one message of sessionID through the state machine and
// returns the reply. Only session store failures are returned as errors.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, message string) (Reply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Reply{}, errx.Validation(errors.New("empty session id"), "sessionId é obrigatório")
	}

	unlock := e.locks.Lock(sessionID)
	defer unlock()

	sess, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}

	t := newTurn(message)
	from := sess.State
	reply := e.dispatch(ctx, sess, t)
	sess.LastActivity = e.now()

	logx.Debug().Str("session_id", sessionID).Str("from", from.String()).Str("to", sess.State.String()).Str("arm", sess.Arm.Label()).Msg("turn handled")
	metrics.Turns.WithLabelValues(sess.Arm.Label()).Inc()

	saveCtx, cancel := detached(ctx)
	defer cancel()
	if err := e.Store.Save(saveCtx, sess); err != nil {
		metrics.PersistenceFailures.WithLabelValues("session").Inc()
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to save session")
	}
	return reply, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, id string) (*Session, error) {
	sess, err := e.Store.Load(ctx, id)
	if err == nil {
		if sess.Ledger == nil {
			sess.Ledger = order.NewLedger()
		}
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	logx.Info().Str("session_id", id).Msg("new session")
	// an expired session may have left an unflushed buffer behind
	e.Recorder.Discard(id)
	return NewSession(id, e.now()), nil
}

// Session loads the stored session. The memory store hands back the live
// value, so callers must not modify it.
func (e *Engine) Session(ctx context.Context, id string) (*Session, error) {
	unlock := e.locks.Lock(id)
	defer unlock()
	return e.Store.Load(ctx, id)
}

func (e *Engine) dispatch(ctx context.Context, s *Session, t turn) Reply {
	if t.isExit() {
		return e.exit(ctx, s, t)
	}
	switch s.State {
	case Unassigned, AwaitingNewEngagement:
		return e.startCycle(ctx, s, t)
	case Evaluation:
		return e.evaluation(s, t)
	case Questionnaire:
		return e.questionnaire(ctx, s, t)
	}

	e.Recorder.Record(s.ID, transcript.User, t.raw)
	reply := e.active(ctx, s, t)
	// a handler that ended the cycle has already written the closing line
	if s.State.Active() {
		e.Recorder.Record(s.ID, transcript.Bot, reply.Text)
	}
	return reply
}

func (e *Engine) active(ctx context.Context, s *Session, t turn) Reply {
	switch s.State {
	case Generative:
		return e.generative(ctx, s, t)
	case RuleBasedMenu:
		return e.mainMenu(ctx, s, t)
	case OrderEntry:
		return e.orderEntry(s, t)
	case CapturingQuantity:
		return e.capturingQuantity(s, t)
	case AskMoreItems:
		return e.askMoreItems(s, t)
	case CapturingName:
		return e.capturingName(s, t)
	case ModifyOrder:
		return e.modifyOrder(s, t)
	case ChoosingLineToEdit:
		return e.choosingLineToEdit(s, t)
	case EditingQuantity:
		return e.editingQuantity(s, t)
	case ChoosingLineToDelete:
		return e.choosingLineToDelete(s, t)
	}
	logx.Error().Str("session_id", s.ID).Str("state", s.State.String()).Msg("no handler for state, returning to menu")
	s.State = RuleBasedMenu
	return text(mainMenuText)
}

// startCycle assigns the arm of a new cycle and answers its first turn.
func (e *Engine) startCycle(ctx context.Context, s *Session, t turn) Reply {
	if s.State == AwaitingNewEngagement {
		s.Reset()
	}
	s.Arm = e.Picker.Pick()
	s.CycleStartedAt = e.now()
	logx.Info().Str("session_id", s.ID).Str("arm", s.Arm.Label()).Msg("cycle started")

	e.Recorder.BeginCycle(s.ID)
	e.Recorder.Record(s.ID, transcript.User, t.raw)

	var reply Reply
	if s.Arm == GenerativeArm {
		// each cycle opens a fresh conversation primed with the persona
		e.Generator.EndConversation(ctx, s.ID)
		s.State = Generative
		reply = e.generative(ctx, s, t)
	} else {
		s.State = RuleBasedMenu
		reply = text(mainMenuText)
	}
	e.Recorder.Record(s.ID, transcript.Bot, reply.Text)
	return reply
}

func (e *Engine) generative(ctx context.Context, s *Session, t turn) Reply {
	answer, err := e.Generator.SendTurn(ctx, s.ID, t.raw)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("generative engine unavailable")
		return text(engineFailureText)
	}
	return text(answer)
}

// exit ends the running cycle: the transcript gets the closing exchange and
// the end marker, is flushed, and the session moves to Evaluation.
func (e *Engine) exit(ctx context.Context, s *Session, t turn) Reply {
	switch {
	case s.State.Idle():
		return text(noCycleText)
	case s.State == Evaluation || s.State == Questionnaire:
		s.Answers = assessment.Answers{}
		s.Question = 0
		s.State = Evaluation
		return exitPrompt
	}

	e.Recorder.Record(s.ID, transcript.User, t.raw)
	e.endCycle(ctx, s, exitPrompt)
	return exitPrompt
}

func (e *Engine) endCycle(ctx context.Context, s *Session, reply Reply) {
	e.Recorder.Record(s.ID, transcript.Bot, reply.Text)
	e.Recorder.EndCycle(s.ID)
	flushCtx, cancel := detached(ctx)
	defer cancel()
	if _, err := e.Recorder.Flush(flushCtx, s.ID, s.Arm.Label()); err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("transcript not persisted")
	}
	if s.Arm == GenerativeArm {
		e.Generator.EndConversation(ctx, s.ID)
	}
	metrics.CyclesCompleted.WithLabelValues(s.Arm.Label()).Inc()
	logx.Info().Str("session_id", s.ID).Str("arm", s.Arm.Label()).Dur("duration", e.now().Sub(s.CycleStartedAt)).Msg("cycle ended")

	s.clearFlow()
	s.State = Evaluation
}

func (e *Engine) evaluation(s *Session, t turn) Reply {
	switch {
	case kwYes.has(t.norm):
		s.State = Questionnaire
		s.Question = 1
		s.Answers = assessment.Answers{}
		return questionReply(1, "")
	case kwNo.has(t.norm):
		s.Reset()
		return text(declineText)
	}
	return Reply{Text: evaluationRepromptText, Buttons: evaluationRepromptButtons}
}

func (e *Engine) questionnaire(ctx context.Context, s *Session, t turn) Reply {
	q, ok := assessment.Lookup(s.Question)
	if !ok {
		logx.Error().Str("session_id", s.ID).Int("question", s.Question).Msg("questionnaire out of range, restarting it")
		s.Question = 1
		return questionReply(1, "")
	}

	answer, err := q.Normalize(t.raw)
	if err != nil {
		return questionReply(q.Number, questionRepromptText)
	}
	s.Answers[q.Number-1] = answer

	if q.Number < assessment.Count {
		s.Question++
		return questionReply(s.Question, "")
	}

	saveCtx, cancel := detached(ctx)
	defer cancel()
	if _, err := e.Assessments.Save(saveCtx, s.ID, s.Arm.Label(), s.Answers); err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("questionnaire not persisted")
	}
	s.Reset()
	return text(questionnaireDoneText)
}

// questionReply shows question n, prefixed by a re-prompt when set.
func questionReply(n int, reprompt string) Reply {
	q, _ := assessment.Lookup(n)
	body := q.Prompt
	if reprompt != "" {
		body = reprompt + "\n\n" + q.Label
	}
	r := Reply{Text: body}
	for _, c := range q.Choices {
		r.Buttons = append(r.Buttons, Button{Label: c.Label, Value: c.Value})
	}
	return r
}
