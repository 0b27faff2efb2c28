package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/model"
)

const nasdaqList = `"Symbol","Name","LastSale","MarketCap","ADR TSO","IPOyear","Sector","Industry","Summary Quote",
"AAPL","Apple Inc.","172.5","$2.7T","n/a","1980","Technology","Computer Manufacturing","https://www.nasdaq.com/symbol/aapl",
"QQQ","Invesco QQQ Trust ETF","400.1","n/a","n/a","n/a","n/a","n/a","https://www.nasdaq.com/symbol/qqq",
"PTY","PIMCO Corporate & Income Opportunity Fund","14.2","n/a","n/a","n/a","n/a","n/a","https://www.nasdaq.com/symbol/pty",
"ZXZZT","NASDAQ TEST STOCK","10","n/a","n/a","n/a","n/a","n/a","https://www.nasdaq.com/symbol/zxzzt",
`

const nyseList = `"Symbol","Name","LastSale","MarketCap","ADR TSO","IPOyear","Sector","Industry","Summary Quote",
"AAPL","Duplicate Apple","1","n/a","n/a","n/a","Finance","Banks","x",
"BRK/A","Berkshire Hathaway Inc.","600000","$800B","n/a","n/a","Finance","Insurance","x",
"KO","Coca-Cola Company (The)","60","$260B","n/a","n/a","Consumer Non-Durables","Beverages","x",
`

func TestRead_TypesAndFields(t *testing.T) {
	c := New()
	require.NoError(t, c.Read(strings.NewReader(nasdaqList)))

	aapl, ok := c.Lookup("AAPL")
	require.True(t, ok)
	assert.Equal(t, model.SymbolMetadata{
		Symbol: "AAPL", Name: "apple inc.", Type: model.TypeStock,
		Sector: "Technology", Industry: "Computer Manufacturing",
	}, aapl)

	qqq, _ := c.Lookup("QQQ")
	assert.Equal(t, model.TypeETF, qqq.Type)
	assert.Equal(t, "n/a", qqq.Sector)

	pty, _ := c.Lookup("PTY")
	assert.Equal(t, model.TypeFund, pty.Type)

	test, _ := c.Lookup("ZXZZT")
	assert.Equal(t, model.TypeUnknown, test.Type)

	_, ok = c.Lookup("MSFT")
	assert.False(t, ok)
}

func TestLoadDir_FirstFileWinsAndSorted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_nasdaq.csv"), []byte(nasdaqList), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_nyse.csv"), []byte(nyseList), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "BRK/A", "KO", "PTY", "QQQ", "ZXZZT"}, c.Symbols())
	assert.Equal(t, 6, c.Len())

	aapl, _ := c.Lookup("AAPL")
	assert.Equal(t, "apple inc.", aapl.Name)
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRead_NoHeaderUsesDefaultLayout(t *testing.T) {
	c := New()
	row := `"IBM","International Business Machines","130","$120B","n/a","n/a","Technology","Computer Services","x"` + "\n"
	require.NoError(t, c.Read(strings.NewReader(row)))
	ibm, ok := c.Lookup("IBM")
	require.True(t, ok)
	assert.Equal(t, "Computer Services", ibm.Industry)
}

func TestFindByName(t *testing.T) {
	c := New(
		model.SymbolMetadata{Symbol: "KO", Name: "coca-cola company (the)"},
		model.SymbolMetadata{Symbol: "CCEP", Name: "coca-cola europacific partners"},
		model.SymbolMetadata{Symbol: "AAPL", Name: "apple inc."},
	)

	got := c.FindByName("Apple Inc.")
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Symbol)

	got = c.FindByName("coca-cola")
	assert.Len(t, got, 2)

	assert.Empty(t, c.FindByName("tesla"))
	assert.Empty(t, c.FindByName("  "))
}

func TestSymbolsIsACopy(t *testing.T) {
	c := New(model.SymbolMetadata{Symbol: "B"}, model.SymbolMetadata{Symbol: "A"})
	s := c.Symbols()
	s[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, c.Symbols())
}
