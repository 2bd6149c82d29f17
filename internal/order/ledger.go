package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errx "github.com/pamonha-express/server/internal/core/error"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrLineNotFound    = errors.New("cart line not found")
)

// LineRef identifies a line independently of its position, so it stays valid
// when earlier lines are removed.
type LineRef int

// CartLine is one ordered item.
type CartLine struct {
	Ref       LineRef         `json:"ref"`
	ItemName  string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice * Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Ledger is the per-session cart. The total is recomputed from the lines after
// every mutation and never adjusted incrementally.
type Ledger struct {
	lines   []CartLine
	nextRef LineRef
	total   decimal.Decimal
}

func NewLedger() *Ledger {
	return &Ledger{nextRef: 1}
}

// AddLine appends a line with quantity 0 and returns its handle.
func (l *Ledger) AddLine(name string, unitPrice decimal.Decimal) LineRef {
	if l.nextRef == 0 {
		l.nextRef = 1
	}
	ref := l.nextRef
	l.nextRef++
	l.lines = append(l.lines, CartLine{Ref: ref, ItemName: name, UnitPrice: unitPrice})
	l.recompute()
	return ref
}

// SetQuantity sets the quantity of the referenced line. Zero or negative
// quantities are rejected; callers remove the line instead.
func (l *Ledger) SetQuantity(ref LineRef, qty int) error {
	if qty <= 0 {
		return errx.Validation(fmt.Errorf("%w: %d", ErrInvalidQuantity, qty), "quantidade inválida")
	}
	i := l.position(ref)
	if i < 0 {
		return fmt.Errorf("%w: ref %d", ErrLineNotFound, ref)
	}
	l.lines[i].Quantity = qty
	l.recompute()
	return nil
}

// RemoveLine deletes the line at the 1-based index and returns it.
func (l *Ledger) RemoveLine(index int) (CartLine, error) {
	if index < 1 || index > len(l.lines) {
		return CartLine{}, errx.Validation(fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(l.lines)), "número inválido")
	}
	removed := l.lines[index-1]
	l.lines = append(l.lines[:index-1], l.lines[index:]...)
	l.recompute()
	return removed, nil
}

// RemoveRef deletes the referenced line, wherever it currently sits.
func (l *Ledger) RemoveRef(ref LineRef) (CartLine, error) {
	i := l.position(ref)
	if i < 0 {
		return CartLine{}, fmt.Errorf("%w: ref %d", ErrLineNotFound, ref)
	}
	return l.RemoveLine(i + 1)
}

// At returns the line at the 1-based index.
func (l *Ledger) At(index int) (CartLine, error) {
	if index < 1 || index > len(l.lines) {
		return CartLine{}, errx.Validation(fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(l.lines)), "número inválido")
	}
	return l.lines[index-1], nil
}

// Line returns the referenced line.
func (l *Ledger) Line(ref LineRef) (CartLine, bool) {
	i := l.position(ref)
	if i < 0 {
		return CartLine{}, false
	}
	return l.lines[i], true
}

func (l *Ledger) Lines() []CartLine {
	return append([]CartLine(nil), l.lines...)
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

func (l *Ledger) Total() decimal.Decimal {
	return l.total
}

// Clear drops every line.
func (l *Ledger) Clear() {
	l.lines = nil
	l.recompute()
}

// Render produces the itemized summary in insertion order followed by the total.
func (l *Ledger) Render() string {
	var b strings.Builder
	b.WriteString("*Seu pedido atual:*")
	for _, line := range l.lines {
		fmt.Fprintf(&b, "\n- %dx %s", line.Quantity, line.ItemName)
	}
	fmt.Fprintf(&b, "\n\n*Valor Total: %s*", FormatBRL(l.total))
	return b.String()
}

func (l *Ledger) position(ref LineRef) int {
	for i, line := range l.lines {
		if line.Ref == ref {
			return i
		}
	}
	return -1
}

func (l *Ledger) recompute() {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.Subtotal())
	}
	l.total = total
}

type ledgerJSON struct {
	Lines   []CartLine `json:"lines"`
	NextRef LineRef    `json:"next_ref"`
}

// MarshalJSON stores only the lines; the total is derived on load.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(ledgerJSON{Lines: l.lines, NextRef: l.nextRef})
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw ledgerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.lines = raw.Lines
	l.nextRef = raw.NextRef
	if l.nextRef == 0 {
		l.nextRef = 1
	}
	l.recompute()
	return nil
}
