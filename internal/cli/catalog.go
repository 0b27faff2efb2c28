package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"QuantCache/internal/catalog"
	"QuantCache/internal/config"
	"QuantCache/internal/model"
)

type catalogCmd struct {
	app  *App
	name string
}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "look up symbols in the catalog" }
func (*catalogCmd) Usage() string {
	return `quantcache catalog [-name QUERY] [SYMBOL]

  Shows the catalog entry of SYMBOL, the entries whose company name matches
  QUERY, or a summary of the whole catalog.
`
}

func (c *catalogCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Company name to search for")
}

func (c *catalogCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		return c.app.usage("catalog takes at most one symbol")
	}
	cfg, err := config.Load(c.app.ConfigPath)
	if err != nil {
		return c.app.fail(err)
	}
	cat, err := catalog.LoadDir(cfg.Catalog.Dir)
	if err != nil {
		return c.app.fail(err)
	}

	switch {
	case f.NArg() == 1:
		e, ok := cat.Lookup(f.Arg(0))
		if !ok {
			return c.app.fail(fmt.Errorf("symbol %s: %w", f.Arg(0), model.ErrNotFound))
		}
		c.app.printMarkdown(formatEntries(fmt.Sprintf("# %s", e.Symbol), []model.SymbolMetadata{e}))
	case c.name != "":
		found := cat.FindByName(c.name)
		if len(found) == 0 {
			return c.app.fail(fmt.Errorf("name %q: %w", c.name, model.ErrNotFound))
		}
		c.app.printMarkdown(formatEntries(fmt.Sprintf("# Matches for %q", c.name), found))
	default:
		c.app.printMarkdown(formatCatalogSummary(cat))
	}
	return subcommands.ExitSuccess
}

func formatEntries(title string, entries []model.SymbolMetadata) string {
	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString("| Symbol | Name | Type | Sector | Industry |\n|---|---|---|---|---|\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n", e.Symbol, e.Name, e.Type, e.Sector, e.Industry))
	}
	return b.String()
}

func formatCatalogSummary(cat *catalog.Catalog) string {
	byType := make(map[model.SecurityType]int)
	invalid := 0
	for _, sym := range cat.Symbols() {
		e, _ := cat.Lookup(sym)
		byType[e.Type]++
		if !model.ValidSymbol(sym) {
			invalid++
		}
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString("# Catalog\n\n")
	b.WriteString(fmt.Sprintf("- Symbols: %d\n", cat.Len()))
	for _, t := range types {
		b.WriteString(fmt.Sprintf("- %s: %d\n", t, byType[model.SecurityType(t)]))
	}
	if invalid > 0 {
		b.WriteString(fmt.Sprintf("- Skipped by batch runs: %d\n", invalid))
	}
	return b.String()
}
