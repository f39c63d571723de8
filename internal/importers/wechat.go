package importers

import (
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// wechatDoneStatuses are the 当前状态 values that represent completed money
// movement; everything else (pending, cancelled) is skipped.
var wechatDoneStatuses = map[string]bool{
	"支付成功":  true,
	"已转账":   true,
	"已存入零钱": true,
	"已收钱":   true,
	"已退款":   true,
	"朋友已收钱": true,
}

// Wechat imports 微信支付 CSV exports. The export carries roughly sixteen
// metadata lines before the header, so the header row is discovered by its
// 交易时间 prefix. 支付方式 carries the funding card text used by the
// intermediary matcher.
type Wechat struct {
	account  string
	currency string
}

func NewWechat(account, currency string) *Wechat {
	if account == "" {
		account = "Assets:WeChat"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &Wechat{account: account, currency: currency}
}

func (w *Wechat) Platform() model.Platform { return model.PlatformWechat }
func (w *Wechat) AccountName() string      { return w.account }

func (w *Wechat) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	content, err := readFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(headLines(content, 1), "微信支付账单明细")
}

func (w *Wechat) Extract(path string) ([]model.Transaction, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	rows, err := csvRows(content, "交易时间")
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, row := range rows {
		tx, ok := w.parseRow(row, path, i)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (w *Wechat) parseRow(row map[string]string, path string, ordinal int) (model.Transaction, bool) {
	postedAt, ok := parseDateTime(row["交易时间"])
	if !ok {
		return model.Transaction{}, false
	}

	status := row["当前状态"]
	if !wechatDoneStatuses[status] {
		return model.Transaction{}, false
	}

	amount, err := decimal.NewFromString(cleanAmount(row["金额(元)"]))
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
	case "/":
		direction = model.DirectionTransfer
	default:
		direction = model.DirectionOther
	}

	slash := func(s string) string {
		s = strings.Trim(s, "\t ")
		if s == "/" {
			return ""
		}
		return s
	}

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformWechat, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformWechat,
		SourceAccount:  w.account,
		ReferenceID:    slash(row["交易单号"]),
		CounterpartRef: slash(row["商户单号"]),
		PostedAt:       postedAt,
		Amount:         amount,
		Currency:       w.currency,
		Counterparty:   row["交易对方"],
		Narration:      strings.Trim(row["商品"], `"`),
		PaymentMethod:  slash(row["支付方式"]),
		RawCategory:    row["交易类型"],
		Direction:      direction,
		Raw: map[string]string{
			"wechat_status": status,
			"wechat_type":   row["交易类型"],
		},
	}, true
}
