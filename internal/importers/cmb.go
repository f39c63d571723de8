package importers

import (
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// CMBCredit imports 招商银行 credit card CSV exports. Two header generations
// exist (交易日/人民币金额 and 交易日期/交易金额); both are accepted. A
// positive statement amount means money was spent, so amounts are negated to
// the record's outflow convention.
type CMBCredit struct {
	account    string
	currency   string
	cardSuffix string
}

func NewCMBCredit(account, currency, cardSuffix string) *CMBCredit {
	if account == "" {
		account = "Liabilities:CreditCard:CMB"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &CMBCredit{account: account, currency: currency, cardSuffix: cardSuffix}
}

func (c *CMBCredit) Platform() model.Platform { return model.PlatformCMBCredit }
func (c *CMBCredit) AccountName() string      { return c.account }

func (c *CMBCredit) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	content, err := readFile(path)
	if err != nil {
		return false
	}
	head := headLines(content, 5)
	return strings.Contains(head, "交易日") &&
		(strings.Contains(head, "招商银行") || strings.Contains(head, "记账日"))
}

func (c *CMBCredit) Extract(path string) ([]model.Transaction, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	rows, err := csvRows(content, "交易日")
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, row := range rows {
		tx, ok := c.parseRow(row, path, i)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (c *CMBCredit) parseRow(row map[string]string, path string, ordinal int) (model.Transaction, bool) {
	postedAt, ok := parseDateTime(firstOf(row, "交易日", "交易日期"))
	if !ok {
		return model.Transaction{}, false
	}

	amount, err := decimal.NewFromString(cleanAmount(firstOf(row, "人民币金额", "交易金额", "金额")))
	if err != nil {
		return model.Transaction{}, false
	}

	direction := model.DirectionExpense
	if amount.IsNegative() {
		direction = model.DirectionIncome
	}

	narration := firstOf(row, "交易摘要", "交易描述", "摘要")
	cardNo := firstOf(row, "卡号后四位", "卡号")
	if cardNo == "" {
		cardNo = c.cardSuffix
	}

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformCMBCredit, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformCMBCredit,
		SourceAccount:  c.account,
		PostedAt:       postedAt,
		Amount:         amount.Neg(), // statement positive = spend = outflow
		Currency:       c.currency,
		Counterparty:   narration,
		Narration:      narration,
		Direction:      direction,
		Raw: map[string]string{
			"card_suffix":  cardNo,
			"posting_date": firstOf(row, "记账日", "记账日期"),
		},
	}, true
}

// CMBDebit imports 招商银行 debit card (储蓄卡) CSV exports, distinguished
// from the credit export by the 余额 balance column.
type CMBDebit struct {
	account  string
	currency string
}

func NewCMBDebit(account, currency string) *CMBDebit {
	if account == "" {
		account = "Assets:Bank:CMB"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &CMBDebit{account: account, currency: currency}
}

func (c *CMBDebit) Platform() model.Platform { return model.PlatformCMBDebit }
func (c *CMBDebit) AccountName() string      { return c.account }

func (c *CMBDebit) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	content, err := readFile(path)
	if err != nil {
		return false
	}
	head := headLines(content, 5)
	return strings.Contains(head, "交易日期") && strings.Contains(head, "余额")
}

func (c *CMBDebit) Extract(path string) ([]model.Transaction, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	rows, err := csvRows(content, "交易日期")
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, row := range rows {
		tx, ok := c.parseRow(row, path, i)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (c *CMBDebit) parseRow(row map[string]string, path string, ordinal int) (model.Transaction, bool) {
	postedAt, ok := parseDateTime(row["交易日期"])
	if !ok {
		return model.Transaction{}, false
	}

	amount, err := decimal.NewFromString(cleanAmount(firstOf(row, "交易金额", "金额")))
	if err != nil {
		return model.Transaction{}, false
	}

	direction := model.DirectionExpense
	if amount.IsPositive() {
		direction = model.DirectionIncome
	}

	narration := firstOf(row, "摘要", "交易摘要")

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformCMBDebit, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformCMBDebit,
		SourceAccount:  c.account,
		PostedAt:       postedAt,
		Amount:         amount,
		Currency:       c.currency,
		Counterparty:   narration,
		Narration:      narration,
		Direction:      direction,
		Raw: map[string]string{
			"balance": row["余额"],
		},
	}, true
}
