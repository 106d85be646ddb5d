// Package refdata provides the reference tables the engine evaluates
// against: the built-in Crypto Guard lists and a loader for YAML, JSON or
// TOML files that replace them.
package refdata

import (
	"time"

	"github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/domain"
	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist/parsers"
)

// BuiltinSource attributes blocklist rules that come from the built-in table.
const BuiltinSource = "builtin"

// Tables is the raw, un-normalized form of reference data as written in a
// file or in the built-in table.
type Tables struct {
	Brands         []string `koanf:"brands" validate:"required,min=1,dive,required"`
	HostKeywords   []string `koanf:"host_keywords" validate:"required,min=1,dive,required"`
	PathKeywords   []string `koanf:"path_keywords" validate:"required,min=1,dive,required"`
	SuspiciousTLDs []string `koanf:"suspicious_tlds" validate:"required,min=1,dive,required"`
	Blocklist      []string `koanf:"blocklist" validate:"dive,required"`

	// Source names where the tables came from; used to attribute rules.
	Source string `koanf:"-"`
}

// Reference normalizes the tables into an immutable ReferenceData value.
func (t Tables) Reference() (domain.ReferenceData, error) {
	return domain.NewReferenceData(t.Brands, t.HostKeywords, t.PathKeywords, t.SuspiciousTLDs)
}

// Rules converts the blocklist entries into block rules stamped with now.
// Invalid entries are skipped and logged at debug level.
func (t Tables) Rules(logger log.Logger, now time.Time) []domain.BlockRule {
	source := t.Source
	if source == "" {
		source = BuiltinSource
	}
	return parsers.ParseEntries(t.Blocklist, source, logger, now)
}

// Builtin returns a fresh copy of the built-in Crypto Guard tables.
func Builtin() Tables {
	return Tables{
		Brands: []string{
			"metamask.io",
			"uniswap.org",
			"binance.com",
			"coinbase.com",
			"kraken.com",
			"bybit.com",
			"okx.com",
		},
		HostKeywords: []string{
			"airdrop",
			"bonus",
			"giveaway",
			"gift",
			"promo",
			"promotion",
			"reward",
			"double",
			"claim",
			"free",
			"mint",
			"drop",
			"connectwallet",
			"walletconnect",
			"wallet-connect",
			"reconnect",
		},
		PathKeywords: []string{
			"airdrop",
			"bonus",
			"giveaway",
			"gift",
			"reward",
			"double",
			"claim",
			"free-nft",
			"free-nfts",
			"mint-free",
			"mint",
			"claim-nft",
			"login-bonus",
			"verify-wallet",
			"connect-wallet",
			"wallet-connect",
			"reconnect-wallet",
			"airdrop-claim",
		},
		SuspiciousTLDs: []string{
			"xyz", "top", "click", "link", "work", "live", "info",
			"online", "cn", "tk", "gq", "ml", "ga",
		},
		Blocklist: []string{
			"metamask-bonus.xyz",
			"uniswap-airdrop.app",
			"binannce.com",
			"coinba5e.com",
		},
		Source: BuiltinSource,
	}
}
