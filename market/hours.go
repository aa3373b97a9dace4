package market

import (
	"strings"
	"time"
)

// AssetClass buckets symbols by their naming convention. The convention is
// Yahoo-style: "=X" forex, "=F" futures/commodities, "-USD" crypto, ".CS"
// Casablanca listings, bare tickers are US equities.
type AssetClass int

const (
	ClassEquityUS AssetClass = iota
	ClassEquityCasablanca
	ClassForex
	ClassCommodity
	ClassCrypto
)

// usEquities are the bare tickers the platform quotes; anything else without
// a recognizable suffix is still treated as a US equity for session hours.
var usEquities = map[string]bool{
	"AAPL":  true,
	"TSLA":  true,
	"GOOGL": true,
	"MSFT":  true,
}

// ListedUSEquity reports whether the symbol is one of the quoted US stock
// tickers. Session hours treat every bare symbol as a US equity, but lot
// sizing only applies stock lots to listed tickers.
func ListedUSEquity(symbol string) bool {
	return usEquities[symbol]
}

// Classify maps a symbol to its asset class by naming convention alone.
func Classify(symbol string) AssetClass {
	switch {
	case strings.HasSuffix(symbol, "-USD"):
		return ClassCrypto
	case strings.Contains(symbol, "=X"):
		return ClassForex
	case strings.Contains(symbol, "=F"):
		return ClassCommodity
	case strings.Contains(symbol, ".CS"):
		return ClassEquityCasablanca
	default:
		return ClassEquityUS
	}
}

// Hours reports the trading session for a symbol at the given instant.
// All session boundaries are UTC:
//
//	crypto       24/7
//	forex/cmdty  Sun 22:00 – Fri 22:00
//	.CS equities Mon–Fri 08:00 – 15:00 (Casablanca 09:00 – 16:00)
//	US equities  Mon–Fri 14:00 – 21:00 (ET 09:30 – 16:00, rounded to hours)
func Hours(symbol string, at time.Time) Session {
	now := at.UTC()
	day := now.Weekday()
	hour := now.Hour()

	switch Classify(symbol) {
	case ClassCrypto:
		return Session{Open: true, Reason: "open 24/7"}

	case ClassForex, ClassCommodity:
		if day == time.Saturday {
			return Session{Open: false, Reason: "closed (weekend)"}
		}
		if day == time.Sunday && hour < 22 {
			return Session{Open: false, Reason: "closed (weekend)"}
		}
		if day == time.Friday && hour >= 22 {
			return Session{Open: false, Reason: "closed (weekend)"}
		}
		return Session{Open: true, Reason: "open (forex/commodities)"}

	case ClassEquityCasablanca:
		if day == time.Saturday || day == time.Sunday {
			return Session{Open: false, Reason: "closed (weekend)"}
		}
		if hour < 8 || hour >= 15 {
			return Session{Open: false, Reason: "closed (out of session)"}
		}
		return Session{Open: true, Reason: "open (Casablanca exchange)"}

	default:
		if day == time.Saturday || day == time.Sunday {
			return Session{Open: false, Reason: "closed (weekend)"}
		}
		if hour < 14 || hour >= 21 {
			return Session{Open: false, Reason: "closed (out of session)"}
		}
		return Session{Open: true, Reason: "open (NYSE/Nasdaq)"}
	}
}
