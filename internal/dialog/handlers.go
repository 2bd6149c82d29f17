package dialog

import (
	"context"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pamonha-express/server/internal/order"
)

var nameCaser = cases.Title(language.BrazilianPortuguese)

// exitPrompt is what every cycle-ending path answers.
var exitPrompt = Reply{Text: evaluationPromptText, Buttons: yesNoButtons}

func (e *Engine) mainMenu(ctx context.Context, s *Session, t turn) Reply {
	switch {
	case kwViewMenu.has(t.norm):
		s.State = OrderEntry
		return text(catalogText(e.Catalog))
	case kwPlaceOrder.has(t.norm):
		s.State = OrderEntry
		return text(orderPromptText)
	case kwViewOrder.has(t.norm):
		if s.Ledger.IsEmpty() {
			return text(emptyOrderText + "\n\n" + mainMenuText)
		}
		s.State = ModifyOrder
		return text(s.Ledger.Render() + "\n\n" + modifyMenuText)
	case kwCancel.has(t.norm):
		e.endCycle(ctx, s, exitPrompt)
		return exitPrompt
	}
	return text(mainMenuText)
}

func (e *Engine) orderEntry(s *Session, t turn) Reply {
	if kwBack.has(t.norm) {
		s.State = RuleBasedMenu
		return text(mainMenuText)
	}
	n, err := strconv.Atoi(t.norm)
	if err != nil {
		return text(itemNotNumberText)
	}
	item, ok := e.Catalog.Lookup(n)
	if !ok {
		return text(unknownItemText)
	}
	s.PendingLine = s.Ledger.AddLine(item.Name, item.Price)
	s.State = CapturingQuantity
	return text(itemChosenText(item))
}

func (e *Engine) capturingQuantity(s *Session, t turn) Reply {
	qty, err := strconv.Atoi(t.norm)
	if err != nil {
		return text(quantityNotNumText)
	}
	if qty <= 0 {
		return text(invalidQuantityText)
	}
	if err := s.Ledger.SetQuantity(s.PendingLine, qty); err != nil {
		// the pending line vanished; start the item over
		s.PendingLine = 0
		s.State = OrderEntry
		return text(orderPromptText)
	}
	line, _ := s.Ledger.Line(s.PendingLine)
	s.PendingLine = 0
	s.State = AskMoreItems
	return Reply{Text: addedText(qty, line.ItemName), Buttons: yesNoButtons}
}

func (e *Engine) askMoreItems(s *Session, t turn) Reply {
	switch {
	case kwYes.has(t.norm):
		s.State = OrderEntry
		return text(nextItemText)
	case kwNo.has(t.norm), kwFinish.has(t.norm):
		s.State = CapturingName
		return text(askNameText)
	}
	return Reply{Text: askMoreRepromptText, Buttons: yesNoButtons}
}

func (e *Engine) capturingName(s *Session, t turn) Reply {
	s.CustomerName = nameCaser.String(t.raw)
	s.State = RuleBasedMenu
	return text(confirmedText(s.CustomerName))
}

func (e *Engine) modifyOrder(s *Session, t turn) Reply {
	switch {
	case kwEditQty.has(t.norm):
		s.State = ChoosingLineToEdit
		return text(lineListText(chooseLineToEditText, s.Ledger, true))
	case kwDeleteLine.has(t.norm):
		s.State = ChoosingLineToDelete
		return text(lineListText(chooseLineToDelText, s.Ledger, false))
	case kwCancelOrder.has(t.norm):
		s.Ledger.Clear()
		s.State = RuleBasedMenu
		return text(orderCancelledText + "\n\n" + mainMenuText)
	case kwModifyBack.has(t.norm):
		s.State = RuleBasedMenu
		return text(mainMenuText)
	}
	return text(invalidOptionText + modifyMenuText)
}

func (e *Engine) choosingLineToEdit(s *Session, t turn) Reply {
	n, err := strconv.Atoi(t.norm)
	if err != nil {
		return text(lineNotNumberText)
	}
	line, err := s.Ledger.At(n)
	if err != nil {
		return text(invalidLineText)
	}
	s.EditLine = line.Ref
	s.State = EditingQuantity
	return text(newQuantityText(line.ItemName))
}

func (e *Engine) editingQuantity(s *Session, t turn) Reply {
	qty, err := strconv.Atoi(t.norm)
	if err != nil {
		return text(editNotNumberText)
	}
	if qty < 0 {
		return text(invalidQuantityText)
	}
	ref := s.EditLine
	s.EditLine = 0

	if qty == 0 {
		removed, err := s.Ledger.RemoveRef(ref)
		if err != nil {
			s.State = ModifyOrder
			return text(invalidOptionText + modifyMenuText)
		}
		return e.afterRemoval(s, removed)
	}

	if err := s.Ledger.SetQuantity(ref, qty); err != nil {
		s.State = ModifyOrder
		return text(invalidOptionText + modifyMenuText)
	}
	s.State = ModifyOrder
	return text(quantityChangedText + "\n\n" + s.Ledger.Render() + "\n" + modifyMenuText)
}

func (e *Engine) choosingLineToDelete(s *Session, t turn) Reply {
	n, err := strconv.Atoi(t.norm)
	if err != nil {
		return text(lineNotNumberText)
	}
	removed, err := s.Ledger.RemoveLine(n)
	if err != nil {
		return text(invalidLineText)
	}
	return e.afterRemoval(s, removed)
}

func (e *Engine) afterRemoval(s *Session, removed order.CartLine) Reply {
	if s.Ledger.IsEmpty() {
		s.State = RuleBasedMenu
		return text(removedText(removed.ItemName) + orderNowEmptyText + "\n\n" + mainMenuText)
	}
	s.State = ModifyOrder
	return text(removedText(removed.ItemName) + modifyMenuText)
}
