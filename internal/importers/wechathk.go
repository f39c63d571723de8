package importers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// wechatHKRecord mirrors one entry of the WeChat Pay HK JSON export.
type wechatHKRecord struct {
	AmountInCent string `json:"amount_in_cent"`
	CurrencyCode string `json:"currency_code"`
	Datetime     string `json:"datetime"`
	Merchant     string `json:"merchant"`
	Description  string `json:"description"`
	ProductDesc  string `json:"product_desc"`
	PayRecordID  string `json:"payrecord_id"`
	OutTradeNo   string `json:"out_trade_no"`
	ForeignPrice string `json:"foreign_price"`
	PayState     string `json:"pay_state"`
	PayMethod    string `json:"pay_method"`
}

// WechatHK imports 微信支付香港 JSON exports. Amounts arrive in HKD cents;
// pay_state 0 is a completed payment and 9 a refund. When the purchase was
// priced in a foreign currency the original price (mostly CNY) is retained
// for the ledger writer's price annotation.
type WechatHK struct {
	account  string
	currency string
}

func NewWechatHK(account, currency string) *WechatHK {
	if account == "" {
		account = "Assets:WeChatHK"
	}
	if currency == "" {
		currency = "HKD"
	}
	return &WechatHK{account: account, currency: currency}
}

func (w *WechatHK) Platform() model.Platform { return model.PlatformWechatHK }
func (w *WechatHK) AccountName() string      { return w.account }

func (w *WechatHK) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return false
	}
	records, err := w.load(path)
	if err != nil || len(records) == 0 {
		return false
	}
	return records[0].PayRecordID != "" && records[0].CurrencyCode != ""
}

func (w *WechatHK) Extract(path string) ([]model.Transaction, error) {
	records, err := w.load(path)
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, rec := range records {
		tx, ok := w.parseRecord(rec, path, i)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (w *WechatHK) load(path string) ([]wechatHKRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []wechatHKRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (w *WechatHK) parseRecord(rec wechatHKRecord, path string, ordinal int) (model.Transaction, bool) {
	// 0 = success, 9 = refund; anything else is pending or failed.
	if rec.PayState != "0" && rec.PayState != "9" {
		return model.Transaction{}, false
	}

	ts, err := strconv.ParseInt(rec.Datetime, 10, 64)
	if err != nil {
		return model.Transaction{}, false
	}
	postedAt := time.Unix(ts, 0).UTC()

	cents, err := decimal.NewFromString(rec.AmountInCent)
	if err != nil {
		return model.Transaction{}, false
	}
	amount := cents.Shift(-2)

	direction := model.DirectionExpense
	if rec.PayState == "9" {
		direction = model.DirectionIncome
		amount = amount.Abs()
	} else {
		amount = amount.Abs().Neg()
	}

	narration := rec.Description
	if narration == "" {
		narration = rec.ProductDesc
	}

	raw := map[string]string{"pay_state": rec.PayState}
	if fa, fc, ok := parseForeignPrice(rec.ForeignPrice); ok {
		raw["foreign_amount"] = fa.String()
		raw["foreign_currency"] = fc
	}

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformWechatHK, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformWechatHK,
		SourceAccount:  w.account,
		ReferenceID:    rec.PayRecordID,
		CounterpartRef: rec.OutTradeNo,
		PostedAt:       postedAt,
		Amount:         amount,
		Currency:       w.currency,
		Counterparty:   rec.Merchant,
		Narration:      narration,
		PaymentMethod:  rec.PayMethod,
		Direction:      direction,
		Raw:            raw,
	}, true
}

// parseForeignPrice parses "￥25.00" into (25.00, CNY). Only the CNY marker
// appears in practice; unrecognized formats are ignored.
func parseForeignPrice(s string) (decimal.Decimal, string, bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"￥", "¥"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			amount, err := decimal.NewFromString(rest)
			if err != nil {
				return decimal.Decimal{}, "", false
			}
			return amount, "CNY", true
		}
	}
	return decimal.Decimal{}, "", false
}
