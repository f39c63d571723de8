package importers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// costcoItemAccounts maps item keywords to expense accounts, checked in
// order; everything unmatched is grocery.
var costcoItemAccounts = []struct {
	pattern *regexp.Regexp
	account string
}{
	{regexp.MustCompile("洗发|沐浴|牙膏|纸巾|卫生|洗衣|清洁|厨房纸|保鲜"), "Expenses:Shopping:DailyGoods"},
	{regexp.MustCompile("服装|衣|裤|鞋|袜|外套|帽"), "Expenses:Shopping:Clothing"},
	{regexp.MustCompile("电子|耳机|充电|数码|电器|手表"), "Expenses:Shopping:Electronics"},
	{regexp.MustCompile("家具|床|椅|桌|收纳|家居"), "Expenses:Shopping:HomeGoods"},
}

const costcoDefaultAccount = "Expenses:Food:Grocery"

func costcoItemAccount(name string) string {
	for _, rule := range costcoItemAccounts {
		if rule.pattern.MatchString(name) {
			return rule.account
		}
	}
	return costcoDefaultAccount
}

// costcoItem is one purchased line; amount is the item count.
type costcoItem struct {
	ItemName  string      `json:"itemName"`
	Amount    json.Number `json:"amount"`
	UnitPrice json.Number `json:"unitPrice"`
}

type costcoData struct {
	Barcode       string       `json:"barcode"`
	ItemList      []costcoItem `json:"itemList"`
	ActualPayment json.Number  `json:"actualPayment"`
	CashDiscount  json.Number  `json:"cashDiscount"`
	TransTime     string       `json:"transTime"`
	WarehouseName string       `json:"warehouseName"`
}

type costcoReceipt struct {
	Code    string      `json:"code"`
	Success bool        `json:"success"`
	Data    *costcoData `json:"data"`
}

// Costco imports Costco JSON receipt exports. One file is one receipt; the
// barcode's digits 5-14 are the merchant order number that Alipay and WeChat
// report as the counterparty order, which is what phase 1 pairs on.
type Costco struct {
	account  string
	currency string
}

func NewCostco(account, currency string) *Costco {
	if account == "" {
		account = "Assets:Clearing:Costco"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &Costco{account: account, currency: currency}
}

func (c *Costco) Platform() model.Platform { return model.PlatformCostco }
func (c *Costco) AccountName() string      { return c.account }

func (c *Costco) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return false
	}
	receipt, err := c.load(path)
	if err != nil || receipt.Code == "" || receipt.Data == nil {
		return false
	}
	data := receipt.Data
	return data.Barcode != "" && data.ItemList != nil && data.ActualPayment != ""
}

func (c *Costco) Extract(path string) ([]model.Transaction, error) {
	receipt, err := c.load(path)
	if err != nil {
		return nil, err
	}
	if !receipt.Success || receipt.Data == nil {
		return nil, nil
	}
	tx, ok := c.parseReceipt(*receipt.Data, path)
	if !ok {
		return nil, nil
	}
	return []model.Transaction{tx}, nil
}

func (c *Costco) load(path string) (costcoReceipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return costcoReceipt{}, err
	}
	var receipt costcoReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return costcoReceipt{}, err
	}
	return receipt, nil
}

func (c *Costco) parseReceipt(data costcoData, path string) (model.Transaction, bool) {
	postedAt, ok := parseDateTime(data.TransTime)
	if !ok {
		return model.Transaction{}, false
	}

	payment, err := decimal.NewFromString(data.ActualPayment.String())
	if err != nil {
		return model.Transaction{}, false
	}

	merchantOrder := ""
	if len(data.Barcode) >= 14 {
		merchantOrder = data.Barcode[4:14]
	}

	raw := map[string]string{}
	if discount, err := decimal.NewFromString(data.CashDiscount.String()); err == nil && !discount.IsZero() {
		raw["costco_discount"] = discount.Abs().String()
	}

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformCostco, filepath.Base(path), 0),
		SourcePlatform: model.PlatformCostco,
		SourceAccount:  c.account,
		ReferenceID:    data.Barcode,
		CounterpartRef: merchantOrder,
		PostedAt:       postedAt,
		Amount:         payment.Neg(),
		Currency:       c.currency,
		Counterparty:   "Costco",
		Narration:      data.WarehouseName,
		Direction:      model.DirectionExpense,
		Postings:       costcoPostings(data.ItemList),
		Raw:            raw,
	}, true
}

func costcoPostings(items []costcoItem) []model.Posting {
	if len(items) == 0 {
		return nil
	}
	postings := make([]model.Posting, 0, len(items))
	for _, item := range items {
		price, err := decimal.NewFromString(item.UnitPrice.String())
		if err != nil {
			continue
		}
		qty, err := decimal.NewFromString(item.Amount.String())
		if err != nil || !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		postings = append(postings, model.Posting{
			Amount:  price.Mul(qty).Neg(),
			Memo:    item.ItemName,
			Account: costcoItemAccount(item.ItemName),
		})
	}
	return postings
}
