package model

import (
	"fmt"
	"regexp"
)

// SecurityType classifies a cataloged symbol.
type SecurityType string

const (
	TypeStock   SecurityType = "stock"
	TypeETF     SecurityType = "ETF"
	TypeFund    SecurityType = "fund"
	TypeUnknown SecurityType = "unknown"
)

// SymbolMetadata is the summary row kept for each stored symbol.
type SymbolMetadata struct {
	Symbol   string
	Name     string
	Type     SecurityType
	Sector   string
	Industry string
}

const maxSymbolLen = 32

// Index tickers (^GSPC), share-class paths (BRK/A) and anything else outside
// this set are rejected before reaching storage.
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidSymbol reports whether symbol can be used as a storage key.
func ValidSymbol(symbol string) bool {
	return len(symbol) <= maxSymbolLen && symbolPattern.MatchString(symbol)
}

// CheckSymbol returns an ErrValidation error for unusable symbols.
func CheckSymbol(symbol string) error {
	if !ValidSymbol(symbol) {
		return fmt.Errorf("symbol %q: %w", symbol, ErrValidation)
	}
	return nil
}
