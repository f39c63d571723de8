// Package model defines the normalized transaction record shared by every
// importer and consumed by the matching engine.
//
// A Transaction is NOT a ledger entry - it is the intermediate representation
// produced once per imported line/entry, immutable after creation, that the
// matching engine consolidates and the ledger writer serializes.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies the source a transaction was imported from.
type Platform string

const (
	PlatformAlipay    Platform = "alipay"
	PlatformWechat    Platform = "wechat"
	PlatformWechatHK  Platform = "wechat-hk"
	PlatformCMBCredit Platform = "cmb-credit"
	PlatformCMBDebit  Platform = "cmb-debit"
	PlatformJD        Platform = "jd"
	PlatformAldi      Platform = "aldi"
	PlatformCostco    Platform = "costco"
)

// Direction classifies a transaction from the source account's perspective.
type Direction string

const (
	DirectionExpense  Direction = "expense"
	DirectionIncome   Direction = "income"
	DirectionTransfer Direction = "transfer"
	DirectionOther    Direction = "other"
)

// Posting is a single line-item amount within a multi-item receipt. Account
// optionally carries the importer's own item categorization; when empty the
// ledger writer categorizes the memo text itself.
type Posting struct {
	Amount  decimal.Decimal
	Memo    string
	Account string
}

// Transaction is the normalized record every importer emits.
type Transaction struct {
	// ID is derived deterministically from the source file and row position,
	// so re-importing the same file yields the same IDs.
	ID string

	SourcePlatform Platform
	SourceAccount  string // ledger account for this source, e.g. Assets:Alipay

	// ReferenceID is the platform-native transaction number, unique within a
	// platform when present. CounterpartRef is the counterparty's order
	// number (e.g. merchant order id), when the platform exposes one.
	ReferenceID    string
	CounterpartRef string

	PostedAt time.Time // timezone-naive as reported by the source

	Amount   decimal.Decimal // negative = outflow
	Currency string

	Counterparty  string // free-text merchant/payee, unnormalized
	Narration     string
	PaymentMethod string // free-text funding description, e.g. 招商银行信用卡(1234)

	Postings    []Posting
	RawCategory string
	Direction   Direction

	// Raw carries opaque source fields for audit/debugging. The matching
	// engine never interprets it.
	Raw map[string]string
}

// DeriveID computes the stable identifier for a record: a hash over the
// source file's identity and the record's ordinal position within it.
func DeriveID(platform Platform, sourceFile string, ordinal int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d", platform, sourceFile, ordinal))
	return hex.EncodeToString(h[:16])
}

// Outflow reports whether the transaction moves money out of the source
// account.
func (t Transaction) Outflow() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// DateOnly returns the posting date truncated to midnight, used for
// day-granularity comparisons.
func (t Transaction) DateOnly() time.Time {
	y, m, d := t.PostedAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
