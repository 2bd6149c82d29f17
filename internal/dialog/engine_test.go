package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pamonha-express/server/internal/archive"
	"github.com/pamonha-express/server/internal/assessment"
	errx "github.com/pamonha-express/server/internal/core/error"
	"github.com/pamonha-express/server/internal/order"
	"github.com/pamonha-express/server/internal/transcript"
)

type fakeGenerator struct {
	mu    sync.Mutex
	fail  bool
	sent  []string
	ended []string
}

func (g *fakeGenerator) SendTurn(_ context.Context, sessionID, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return "", errors.New("quota exceeded")
	}
	g.sent = append(g.sent, text)
	return "Claro! Temos pamonha doce por R$ 10,00.", nil
}

func (g *fakeGenerator) EndConversation(_ context.Context, sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ended = append(g.ended, sessionID)
}

type countingPicker struct {
	mu    sync.Mutex
	arm   Arm
	calls int
}

func (p *countingPicker) Pick() Arm {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.arm
}

type harness struct {
	engine  *Engine
	archive *archive.FileArchive
	gen     *fakeGenerator
}

func newHarness(t *testing.T, picker ArmPicker) *harness {
	t.Helper()
	store := archive.NewFileArchive(t.TempDir())
	gen := &fakeGenerator{}
	e, err := NewEngine(Deps{
		Store:       NewMemoryStore(0),
		Catalog:     order.DefaultCatalog(),
		Generator:   gen,
		Recorder:    transcript.NewRecorder(store),
		Assessments: assessment.NewCollector(store),
		Picker:      picker,
	})
	require.NoError(t, err)
	return &harness{engine: e, archive: store, gen: gen}
}

func (h *harness) send(t *testing.T, id, msg string) Reply {
	t.Helper()
	r, err := h.engine.HandleTurn(context.Background(), id, msg)
	require.NoError(t, err)
	return r
}

func (h *harness) session(t *testing.T, id string) *Session {
	t.Helper()
	s, err := h.engine.Session(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (h *harness) transcripts(t *testing.T) []*transcript.Document {
	t.Helper()
	ctx := context.Background()
	names, err := h.archive.Index(ctx, archive.Transcripts)
	require.NoError(t, err)
	var docs []*transcript.Document
	for _, name := range names {
		body, err := h.archive.Get(ctx, archive.Transcripts, name)
		require.NoError(t, err)
		doc, err := transcript.Parse(body)
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	return docs
}

func countKind(doc *transcript.Document, kind transcript.EntryKind) int {
	n := 0
	for _, e := range doc.Entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewEngineRequiresDeps(t *testing.T) {
	_, err := NewEngine(Deps{})
	assert.Error(t, err)
}

func TestEmptySessionIDRejected(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	_, err := h.engine.HandleTurn(context.Background(), "  ", "oi")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindValidation))
}

func TestFirstTurnShowsMenuAndCatalog(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))

	r := h.send(t, "s1", "oi")
	assert.Equal(t, mainMenuText, r.Text)
	s := h.session(t, "s1")
	assert.Equal(t, RuleBasedMenu, s.State)
	assert.Equal(t, RuleBased, s.Arm)

	r = h.send(t, "s1", "1")
	assert.Contains(t, r.Text, "📋 *Cardápio*")
	assert.Contains(t, r.Text, "1 - Pamonha Doce: R$ 10,00")
	assert.Contains(t, r.Text, "8 - Água Mineral: R$ 3,00")
	assert.Equal(t, OrderEntry, h.session(t, "s1").State)
}

func TestOrderFlow(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	steps := []struct {
		in       string
		contains string
		state    State
	}{
		{"oi", "Por favor, escolha uma opção", RuleBasedMenu},
		{"Cardápio", "Cardápio", OrderEntry},
		{"1", "Você escolheu Pamonha Doce por R$ 10,00.", CapturingQuantity},
		{"2", "Adicionado 2x Pamonha Doce ao pedido.", AskMoreItems},
		{"sim", nextItemText, OrderEntry},
		{"3", "Você escolheu Pamonha Apimentada por R$ 12,00.", CapturingQuantity},
		{"1", "Adicionado 1x Pamonha Apimentada ao pedido.", AskMoreItems},
		{"não", askNameText, CapturingName},
		{"maria da silva", "Obrigado, Maria Da Silva!", RuleBasedMenu},
		{"3", "*Valor Total: R$ 32,00*", ModifyOrder},
	}
	for _, st := range steps {
		r := h.send(t, "s1", st.in)
		assert.Contains(t, r.Text, st.contains, "input %q", st.in)
		assert.Equal(t, st.state, h.session(t, "s1").State, "input %q", st.in)
	}

	s := h.session(t, "s1")
	assert.Equal(t, "Maria Da Silva", s.CustomerName)
	assert.Equal(t, 2, s.Ledger.Len())
	assert.Equal(t, "32", s.Ledger.Total().String())
}

func TestAddedReplyCarriesYesNoButtons(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	for _, in := range []string{"oi", "2", "5"} {
		h.send(t, "s1", in)
	}
	r := h.send(t, "s1", "3")
	assert.Equal(t, yesNoButtons, r.Buttons)
}

func TestUnrecognizedInput(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")

	assert.Equal(t, mainMenuText, h.send(t, "s1", "quero uma coxinha").Text)
	assert.Equal(t, RuleBasedMenu, h.session(t, "s1").State)

	h.send(t, "s1", "2")
	assert.Equal(t, itemNotNumberText, h.send(t, "s1", "pamonha").Text)
	assert.Equal(t, unknownItemText, h.send(t, "s1", "42").Text)
	assert.Equal(t, OrderEntry, h.session(t, "s1").State)

	h.send(t, "s1", "4")
	assert.Equal(t, quantityNotNumText, h.send(t, "s1", "duas").Text)
	assert.Equal(t, invalidQuantityText, h.send(t, "s1", "0").Text)
	assert.Equal(t, invalidQuantityText, h.send(t, "s1", "-3").Text)
	assert.Equal(t, CapturingQuantity, h.session(t, "s1").State)

	h.send(t, "s1", "2")
	r := h.send(t, "s1", "talvez")
	assert.Equal(t, askMoreRepromptText, r.Text)
	assert.Equal(t, yesNoButtons, r.Buttons)
	assert.Equal(t, AskMoreItems, h.session(t, "s1").State)
}

func TestBackToMenuFromOrderEntry(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	h.send(t, "s1", "1")
	assert.Equal(t, mainMenuText, h.send(t, "s1", "9").Text)
	assert.Equal(t, RuleBasedMenu, h.session(t, "s1").State)
}

func TestViewEmptyOrder(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	r := h.send(t, "s1", "ver pedido")
	assert.Equal(t, emptyOrderText+"\n\n"+mainMenuText, r.Text)
	assert.Equal(t, RuleBasedMenu, h.session(t, "s1").State)
}

// orderTwoLines leaves s1 in ModifyOrder with 2x Pamonha Doce and 3x Suco.
func orderTwoLines(t *testing.T, h *harness) {
	t.Helper()
	for _, in := range []string{"oi", "2", "1", "2", "sim", "6", "3", "nao", "Ana", "3"} {
		h.send(t, "s1", in)
	}
	require.Equal(t, ModifyOrder, h.session(t, "s1").State)
	require.Equal(t, "35", h.session(t, "s1").Ledger.Total().String())
}

func TestEditQuantity(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	orderTwoLines(t, h)

	r := h.send(t, "s1", "alterar")
	assert.Equal(t, chooseLineToEditText+"\n1. 2x Pamonha Doce\n2. 3x Suco", r.Text)

	assert.Equal(t, lineNotNumberText, h.send(t, "s1", "suco").Text)
	assert.Equal(t, invalidLineText, h.send(t, "s1", "3").Text)
	assert.Equal(t, ChoosingLineToEdit, h.session(t, "s1").State)

	assert.Equal(t, "Qual a nova quantidade para *Suco*?", h.send(t, "s1", "2").Text)
	assert.Equal(t, editNotNumberText, h.send(t, "s1", "um").Text)
	assert.Equal(t, invalidQuantityText, h.send(t, "s1", "-1").Text)
	assert.Equal(t, EditingQuantity, h.session(t, "s1").State)

	r = h.send(t, "s1", "5")
	assert.Equal(t, quantityChangedText+"\n\n*Seu pedido atual:*\n- 2x Pamonha Doce\n- 5x Suco\n\n*Valor Total: R$ 45,00*\n"+modifyMenuText, r.Text)
	assert.Equal(t, ModifyOrder, h.session(t, "s1").State)
	assert.Equal(t, "45", h.session(t, "s1").Ledger.Total().String())
}

func TestEditQuantityToZeroRemovesLine(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	orderTwoLines(t, h)

	h.send(t, "s1", "1")
	h.send(t, "s1", "1")
	r := h.send(t, "s1", "0")
	assert.Equal(t, "Item 'Pamonha Doce' removido do seu pedido."+modifyMenuText, r.Text)

	s := h.session(t, "s1")
	assert.Equal(t, ModifyOrder, s.State)
	assert.Equal(t, 1, s.Ledger.Len())
	assert.Equal(t, "15", s.Ledger.Total().String())
}

func TestDeleteLinesUntilEmpty(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	orderTwoLines(t, h)

	r := h.send(t, "s1", "excluir")
	assert.Equal(t, chooseLineToDelText+"\n1. Pamonha Doce\n2. Suco", r.Text)
	assert.Equal(t, invalidLineText, h.send(t, "s1", "0").Text)

	r = h.send(t, "s1", "1")
	assert.Equal(t, "Item 'Pamonha Doce' removido do seu pedido."+modifyMenuText, r.Text)
	assert.Equal(t, ModifyOrder, h.session(t, "s1").State)

	h.send(t, "s1", "2")
	r = h.send(t, "s1", "1")
	assert.Equal(t, "Item 'Suco' removido do seu pedido.\nSeu pedido agora está vazio.\n\n"+mainMenuText, r.Text)
	s := h.session(t, "s1")
	assert.Equal(t, RuleBasedMenu, s.State)
	assert.True(t, s.Ledger.IsEmpty())
	assert.True(t, s.Ledger.Total().IsZero())
}

func TestModifyMenuOptions(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	orderTwoLines(t, h)

	r := h.send(t, "s1", "hein")
	assert.Equal(t, invalidOptionText+modifyMenuText, r.Text)
	assert.Equal(t, ModifyOrder, h.session(t, "s1").State)

	r = h.send(t, "s1", "cancelar pedido")
	assert.Equal(t, orderCancelledText+"\n\n"+mainMenuText, r.Text)
	assert.True(t, h.session(t, "s1").Ledger.IsEmpty())
	assert.Equal(t, RuleBasedMenu, h.session(t, "s1").State)
}

func TestExitMidOrderWritesTranscript(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	h.send(t, "s1", "2")

	r := h.send(t, "s1", "  SAIR ")
	assert.Equal(t, evaluationPromptText, r.Text)
	assert.Equal(t, []Button{{Label: "Sim", Value: "sim"}, {Label: "Não", Value: "nao"}}, r.Buttons)

	s := h.session(t, "s1")
	assert.Equal(t, Evaluation, s.State)
	assert.Equal(t, RuleBased, s.Arm)

	docs := h.transcripts(t)
	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "tradicional", doc.Arm)
	assert.Equal(t, 1, countKind(doc, transcript.StartMarker))
	assert.Equal(t, 1, countKind(doc, transcript.EndMarker))
	assert.Equal(t, transcript.EndMarker, doc.Entries[len(doc.Entries)-1].Kind)

	turns := doc.Turns()
	require.Len(t, turns, 6)
	assert.Equal(t, "oi", turns[0].Text)
	assert.Equal(t, transcript.User, turns[2].Speaker)
	assert.Equal(t, "2", turns[2].Text)
	assert.Equal(t, "SAIR", turns[4].Text)
	assert.Equal(t, transcript.Bot, turns[5].Speaker)
	assert.Equal(t, evaluationPromptText, turns[5].Text)
}

func TestCancelOptionEndsCycle(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	r := h.send(t, "s1", "4")
	assert.Equal(t, evaluationPromptText, r.Text)
	assert.Equal(t, Evaluation, h.session(t, "s1").State)

	docs := h.transcripts(t)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, countKind(docs[0], transcript.EndMarker))
	assert.Len(t, docs[0].Turns(), 4)
}

func TestExitWithoutCycle(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	r := h.send(t, "s1", "sair")
	assert.Equal(t, noCycleText, r.Text)
	assert.Equal(t, Unassigned, h.session(t, "s1").State)
	assert.Empty(t, h.transcripts(t))
}

func TestExitDuringQuestionnaireRestartsEvaluation(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	h.send(t, "s1", "sair")
	h.send(t, "s1", "sim")
	h.send(t, "s1", "5")

	r := h.send(t, "s1", "sair")
	assert.Equal(t, evaluationPromptText, r.Text)
	s := h.session(t, "s1")
	assert.Equal(t, Evaluation, s.State)
	assert.Equal(t, assessment.Answers{}, s.Answers)
	assert.Len(t, h.transcripts(t), 1)
}

func TestEvaluationReprompt(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	h.send(t, "s1", "sair")

	r := h.send(t, "s1", "talvez")
	assert.Equal(t, evaluationRepromptText, r.Text)
	assert.Equal(t, evaluationRepromptButtons, r.Buttons)
	assert.Equal(t, Evaluation, h.session(t, "s1").State)
}

func TestDeclineQuestionnaire(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	h.send(t, "s1", "sair")

	r := h.send(t, "s1", "não")
	assert.Equal(t, declineText, r.Text)
	s := h.session(t, "s1")
	assert.Equal(t, AwaitingNewEngagement, s.State)
	assert.Equal(t, ArmUnset, s.Arm)
}

func TestQuestionnaireFlow(t *testing.T) {
	ctx := context.Background()
	picker := &countingPicker{arm: RuleBased}
	h := newHarness(t, picker)
	h.send(t, "s1", "oi")
	h.send(t, "s1", "sair")

	r := h.send(t, "s1", "sim")
	q1, _ := assessment.Lookup(1)
	assert.Equal(t, q1.Prompt, r.Text)
	require.Len(t, r.Buttons, 5)
	assert.Equal(t, Button{Label: "★★★★★", Value: "5"}, r.Buttons[4])

	r = h.send(t, "s1", "seis")
	assert.Equal(t, questionRepromptText+"\n\n"+q1.Label, r.Text)
	assert.Len(t, r.Buttons, 5)
	assert.Equal(t, 1, h.session(t, "s1").Question)

	h.send(t, "s1", "★★★★")
	r = h.send(t, "s1", "sim, consegui")
	q3, _ := assessment.Lookup(3)
	assert.Equal(t, q3.Prompt, r.Text)
	r = h.send(t, "s1", "Ainda prefiro atendimento humano")
	q4, _ := assessment.Lookup(4)
	assert.Equal(t, q4.Prompt, r.Text)
	assert.Empty(t, r.Buttons)

	r = h.send(t, "s1", "Muito rápido, gostei!")
	assert.Equal(t, questionnaireDoneText, r.Text)
	s := h.session(t, "s1")
	assert.Equal(t, AwaitingNewEngagement, s.State)
	assert.Equal(t, ArmUnset, s.Arm)
	assert.Equal(t, assessment.Answers{}, s.Answers)

	names, err := h.archive.Index(ctx, archive.Assessments)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], "questionario_s1_")
	body, err := h.archive.Get(ctx, archive.Assessments, names[0])
	require.NoError(t, err)
	doc, err := assessment.Parse(body)
	require.NoError(t, err)
	assert.Equal(t, "tradicional", doc.Arm)
	assert.Equal(t, assessment.Answers{"4", "Sim, consegui", "Prefiro humano", "Muito rápido, gostei!"}, doc.Answers)

	r = h.send(t, "s1", "oi de novo")
	assert.Equal(t, mainMenuText, r.Text)
	assert.Equal(t, RuleBasedMenu, h.session(t, "s1").State)
	assert.Equal(t, 2, picker.calls)
}

func TestArmFixedForWholeCycle(t *testing.T) {
	picker := &countingPicker{arm: RuleBased}
	h := newHarness(t, picker)
	for _, in := range []string{"oi", "1", "1", "2", "sim", "9", "3", "2", "1", "4", "xyz", "1", "9"} {
		h.send(t, "s1", in)
		assert.Equal(t, RuleBased, h.session(t, "s1").Arm, "input %q", in)
	}
	assert.Equal(t, 1, picker.calls)
}

func TestGenerativeCycle(t *testing.T) {
	h := newHarness(t, FixedPicker(GenerativeArm))

	r := h.send(t, "g1", "Oi, tem pamonha doce?")
	assert.Equal(t, "Claro! Temos pamonha doce por R$ 10,00.", r.Text)
	s := h.session(t, "g1")
	assert.Equal(t, Generative, s.State)
	assert.Equal(t, GenerativeArm, s.Arm)

	// keywords of the rule-based menu are relayed untouched
	h.send(t, "g1", "1")
	assert.Equal(t, []string{"Oi, tem pamonha doce?", "1"}, h.gen.sent)
	assert.Equal(t, Generative, h.session(t, "g1").State)

	h.gen.fail = true
	r = h.send(t, "g1", "e salgada?")
	assert.Equal(t, engineFailureText, r.Text)
	assert.Equal(t, Generative, h.session(t, "g1").State)

	r = h.send(t, "g1", "sair")
	assert.Equal(t, evaluationPromptText, r.Text)
	// once when the cycle opened, once when it closed
	assert.Equal(t, []string{"g1", "g1"}, h.gen.ended)

	docs := h.transcripts(t)
	require.Len(t, docs, 1)
	assert.Equal(t, "inteligente", docs[0].Arm)
	turns := docs[0].Turns()
	require.Len(t, turns, 8)
	assert.Equal(t, engineFailureText, turns[5].Text)
}

func TestSessionsRunConcurrently(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	var wg sync.WaitGroup
	for i := range 30 {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, in := range []string{"oi", "2", "5", "2", "sim", "8", "4", "nao", "Zé"} {
				if _, err := h.engine.HandleTurn(context.Background(), id, in); err != nil {
					t.Error(err)
					return
				}
			}
		}(fmt.Sprintf("s%d", i))
	}
	wg.Wait()

	for i := range 30 {
		s := h.session(t, fmt.Sprintf("s%d", i))
		assert.Equal(t, RuleBasedMenu, s.State)
		assert.Equal(t, "24", s.Ledger.Total().String())
	}
	assert.Zero(t, h.engine.locks.size())
}

func TestQuantityCaptureAddsLine(t *testing.T) {
	h := newHarness(t, FixedPicker(RuleBased))
	h.send(t, "s1", "oi")
	h.send(t, "s1", "2")
	h.send(t, "s1", "3")
	h.send(t, "s1", "2")

	s := h.session(t, "s1")
	require.Equal(t, 1, s.Ledger.Len())
	line, err := s.Ledger.At(1)
	require.NoError(t, err)
	assert.Equal(t, "Pamonha Apimentada", line.ItemName)
	assert.Equal(t, "12", line.UnitPrice.String())
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "R$ 24,00", order.FormatBRL(s.Ledger.Total()))
}
