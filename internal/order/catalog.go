package order

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// BackToMenu is the item number reserved for leaving order entry.
const BackToMenu = 9

// Item is one sellable product of the fixed menu.
type Item struct {
	Number int
	Name   string
	Price  decimal.Decimal
}

type catalogFile struct {
	Items []struct {
		Number int    `yaml:"number"`
		Name   string `yaml:"name"`
		Price  string `yaml:"price"`
	} `yaml:"items"`
}

// Catalog is an immutable, number-indexed menu.
type Catalog struct {
	items []Item
	index map[int]Item
}

// DefaultCatalog returns the embedded eight-item menu.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("catalog has no items")
	}

	c := &Catalog{index: make(map[int]Item, len(f.Items))}
	for _, raw := range f.Items {
		if raw.Number <= 0 || raw.Number == BackToMenu {
			return nil, fmt.Errorf("catalog item %q: number %d is not allowed", raw.Name, raw.Number)
		}
		if strings.TrimSpace(raw.Name) == "" {
			return nil, fmt.Errorf("catalog item %d: empty name", raw.Number)
		}
		if _, dup := c.index[raw.Number]; dup {
			return nil, fmt.Errorf("catalog item number %d is duplicated", raw.Number)
		}
		price, err := decimal.NewFromString(raw.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog item %d: price %q: %w", raw.Number, raw.Price, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("catalog item %d: price must be positive", raw.Number)
		}
		item := Item{Number: raw.Number, Name: strings.TrimSpace(raw.Name), Price: price}
		c.items = append(c.items, item)
		c.index[item.Number] = item
	}
	sort.Slice(c.items, func(i, j int) bool { return c.items[i].Number < c.items[j].Number })
	return c, nil
}

// Lookup finds an item by its menu number.
func (c *Catalog) Lookup(number int) (Item, bool) {
	item, ok := c.index[number]
	return item, ok
}

// Items returns the menu in number order.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Lines renders "N - Name: R$ X,XX" for every item.
func (c *Catalog) Lines() []string {
	out := make([]string, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, fmt.Sprintf("%d - %s: %s", it.Number, it.Name, FormatBRL(it.Price)))
	}
	return out
}

// FormatBRL formats an amount the way the menu shows it: "R$ 12,00".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
