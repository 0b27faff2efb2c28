// Package catalog is the read-only symbol universe loaded from exchange
// company-list files.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"QuantCache/internal/model"
)

// Catalog maps ticker symbols to their metadata.
type Catalog struct {
	entries map[string]model.SymbolMetadata
	symbols []string
}

// New builds an in-memory catalog. The first entry for a symbol wins.
func New(entries ...model.SymbolMetadata) *Catalog {
	c := &Catalog{entries: make(map[string]model.SymbolMetadata, len(entries))}
	for _, e := range entries {
		c.add(e)
	}
	return c
}

func (c *Catalog) add(e model.SymbolMetadata) {
	if e.Symbol == "" {
		return
	}
	if _, ok := c.entries[e.Symbol]; ok {
		return
	}
	c.entries[e.Symbol] = e
	i := sort.SearchStrings(c.symbols, e.Symbol)
	c.symbols = append(c.symbols, "")
	copy(c.symbols[i+1:], c.symbols[i:])
	c.symbols[i] = e.Symbol
}

// Lookup returns the metadata of symbol.
func (c *Catalog) Lookup(symbol string) (model.SymbolMetadata, bool) {
	e, ok := c.entries[symbol]
	return e, ok
}

// Symbols returns every cataloged symbol in ascending order.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

// Len is the number of cataloged symbols.
func (c *Catalog) Len() int { return len(c.symbols) }

// FindByName resolves a company name. An exact (case-insensitive) match is
// returned alone; otherwise every entry whose name contains query.
func (c *Catalog) FindByName(query string) []model.SymbolMetadata {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var partial []model.SymbolMetadata
	for _, sym := range c.symbols {
		e := c.entries[sym]
		if e.Name == q {
			return []model.SymbolMetadata{e}
		}
		if strings.Contains(e.Name, q) {
			partial = append(partial, e)
		}
	}
	return partial
}

// LoadDir reads every *.csv file of dir in name order.
func LoadDir(dir string) (*Catalog, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list catalog files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files in %s: %w", dir, model.ErrNotFound)
	}
	sort.Strings(files)

	c := New()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog file: %w", err)
		}
		err = c.Read(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
	}
	return c, nil
}

// column positions of the NASDAQ/NYSE/AMEX company list layout:
// Symbol,Name,LastSale,MarketCap,ADR TSO,IPOyear,Sector,Industry,Summary Quote
type layout struct{ symbol, name, sector, industry int }

var defaultLayout = layout{symbol: 0, name: 1, sector: 6, industry: 7}

// Read merges one company-list file into the catalog.
func (c *Catalog) Read(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	cols := defaultLayout
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if first {
			first = false
			if l, ok := headerLayout(row); ok {
				cols = l
				continue
			}
		}
		if e, ok := parseRow(row, cols); ok {
			c.add(e)
		}
	}
}

func headerLayout(row []string) (layout, bool) {
	l := layout{symbol: -1, name: -1, sector: -1, industry: -1}
	for i, h := range row {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "symbol":
			l.symbol = i
		case "name":
			l.name = i
		case "sector":
			l.sector = i
		case "industry":
			l.industry = i
		}
	}
	return l, l.symbol >= 0 && l.name >= 0
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRow(row []string, cols layout) (model.SymbolMetadata, bool) {
	sym := field(row, cols.symbol)
	if sym == "" {
		return model.SymbolMetadata{}, false
	}
	rawName := field(row, cols.name)
	name := strings.ToLower(rawName)
	sector := field(row, cols.sector)
	industry := field(row, cols.industry)

	e := model.SymbolMetadata{Symbol: sym, Name: name}
	if sector == "" || strings.EqualFold(sector, "n/a") {
		e.Type = classifyNonStock(rawName)
		e.Sector, e.Industry = "n/a", "n/a"
		return e, true
	}
	e.Type = model.TypeStock
	e.Sector, e.Industry = sector, industry
	return e, true
}

// classifyNonStock types a listing without sector information by its name.
// "ETF" is matched case-sensitively so names like "Netflix" stay unknown.
func classifyNonStock(name string) model.SecurityType {
	switch {
	case strings.Contains(name, "ETF"):
		return model.TypeETF
	case strings.Contains(strings.ToLower(name), "fund"):
		return model.TypeFund
	default:
		return model.TypeUnknown
	}
}
