package importers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// Alipay imports 支付宝 CSV exports.
//
// The export prepends a few metadata lines before the real header and uses a
// tab-comma delimiter, so fields carry stray tabs that must be stripped.
// Only completed transactions (交易成功 / 退款成功 / 还款成功) are imported.
type Alipay struct {
	account  string
	currency string
}

func NewAlipay(account, currency string) *Alipay {
	if account == "" {
		account = "Assets:Alipay"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &Alipay{account: account, currency: currency}
}

func (a *Alipay) Platform() model.Platform { return model.PlatformAlipay }
func (a *Alipay) AccountName() string      { return a.account }

func (a *Alipay) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	content, err := readFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(headLines(content, 3), "支付宝交易记录")
}

func (a *Alipay) Extract(path string) ([]model.Transaction, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	// Collapse the tab-comma delimiter to plain commas.
	content = strings.ReplaceAll(content, "\t,", ",")
	content = strings.ReplaceAll(content, "\t", "")

	rows, err := csvRows(content, "交易号")
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, row := range rows {
		tx, ok := a.parseRow(row, path, i)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (a *Alipay) parseRow(row map[string]string, path string, ordinal int) (model.Transaction, bool) {
	tradeNo := row["交易号"]
	if tradeNo == "" {
		return model.Transaction{}, false
	}

	status := row["交易状态"]
	switch status {
	case "交易成功", "退款成功", "还款成功":
	default:
		return model.Transaction{}, false
	}

	amount, err := decimal.NewFromString(cleanAmount(firstOf(row, "金额（元）", "金额(元)", "金额")))
	if err != nil {
		return model.Transaction{}, false
	}

	var direction model.Direction
	switch row["收/支"] {
	case "支出":
		amount = amount.Abs().Neg()
		direction = model.DirectionExpense
	case "收入":
		amount = amount.Abs()
		direction = model.DirectionIncome
	case "不计收支":
		direction = model.DirectionTransfer
	default:
		direction = model.DirectionOther
	}

	postedAt, ok := parseDateTime(firstOf(row, "付款时间", "交易创建时间"))
	if !ok {
		return model.Transaction{}, false
	}

	paymentMethod := firstOf(row, "资金状态", "交易来源地")

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformAlipay, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformAlipay,
		SourceAccount:  a.account,
		ReferenceID:    tradeNo,
		CounterpartRef: row["商家订单号"],
		PostedAt:       postedAt,
		Amount:         amount,
		Currency:       a.currency,
		Counterparty:   row["交易对方"],
		Narration:      row["商品名称"],
		PaymentMethod:  paymentMethod,
		RawCategory:    row["类型"],
		Direction:      direction,
		Raw: map[string]string{
			"alipay_status": status,
			"source":        row["交易来源地"],
		},
	}, true
}

// parseDateTime accepts the datetime and date layouts seen across platform
// exports.
func parseDateTime(s string) (time.Time, bool) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"20060102",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
