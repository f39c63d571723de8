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

// aldiItemAccounts maps product keywords to expense accounts. Checked in
// order: ready-to-eat items must come before the generic food patterns, and
// anything unmatched is grocery.
var aldiItemAccounts = []struct {
	pattern *regexp.Regexp
	account string
}{
	{regexp.MustCompile("烤鸡腿|烤猪肘|炸鱼|关东煮|芝士牛肉卷"), "Expenses:Food:Restaurant"},
	{regexp.MustCompile("牙膏|漱口水|护手霜|唇膏|洗手液|洁面乳|蓬松喷雾|卫生巾|夜安裤"), "Expenses:Shopping:DailyGoods"},
	{regexp.MustCompile("湿巾|蒸笼纸|酒精"), "Expenses:Shopping:DailyGoods"},
	{regexp.MustCompile("拖鞋"), "Expenses:Shopping:Clothing"},
}

const aldiDefaultAccount = "Expenses:Food:Grocery"

func aldiItemAccount(name string) string {
	for _, rule := range aldiItemAccounts {
		if rule.pattern.MatchString(name) {
			return rule.account
		}
	}
	return aldiDefaultAccount
}

// aldiProduct is one line of an order; num and price arrive as JSON numbers.
type aldiProduct struct {
	Name  string      `json:"name"`
	Num   json.Number `json:"num"`
	Price json.Number `json:"price"`
}

type aldiOrder struct {
	OrderCode       string        `json:"orderCode"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	Store           string        `json:"store"`
	Channel         string        `json:"channel"`
	PaymentAmount   json.Number   `json:"paymentAmount"`
	PromotionAmount json.Number   `json:"promotionAmount"`
	Products        []aldiProduct `json:"products"`
	OrderStatusName string        `json:"orderStatusName"`
}

type aldiExport struct {
	Orders []aldiOrder `json:"orders"`
}

// Aldi imports 奥乐齐 JSON order exports. Each completed order becomes one
// transaction whose product lines carry pre-categorized postings, so the
// receipt splits across expense accounts when written to the ledger.
type Aldi struct {
	account  string
	currency string
}

func NewAldi(account, currency string) *Aldi {
	if account == "" {
		account = "Assets:Clearing:ALDI"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &Aldi{account: account, currency: currency}
}

func (a *Aldi) Platform() model.Platform { return model.PlatformAldi }
func (a *Aldi) AccountName() string      { return a.account }

func (a *Aldi) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return false
	}
	export, err := a.load(path)
	if err != nil || len(export.Orders) == 0 {
		return false
	}
	first := export.Orders[0]
	if first.OrderCode == "" || first.Store == "" {
		return false
	}
	return strings.Contains(first.Store, "ALDI") || strings.Contains(first.Store, "奥乐齐")
}

func (a *Aldi) Extract(path string) ([]model.Transaction, error) {
	export, err := a.load(path)
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, order := range export.Orders {
		tx, ok := a.parseOrder(order, path, i)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (a *Aldi) load(path string) (aldiExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return aldiExport{}, err
	}
	var export aldiExport
	if err := json.Unmarshal(data, &export); err != nil {
		return aldiExport{}, err
	}
	return export, nil
}

func (a *Aldi) parseOrder(order aldiOrder, path string, ordinal int) (model.Transaction, bool) {
	if order.OrderStatusName != "已完成" {
		return model.Transaction{}, false
	}

	postedAt, ok := parseDateTime(order.Date + " " + order.Time)
	if !ok {
		return model.Transaction{}, false
	}

	payment, err := decimal.NewFromString(order.PaymentAmount.String())
	if err != nil {
		return model.Transaction{}, false
	}

	raw := map[string]string{}
	if order.Channel != "" {
		raw["aldi_channel"] = order.Channel
	}
	if promotion, err := decimal.NewFromString(order.PromotionAmount.String()); err == nil && !promotion.IsZero() {
		raw["aldi_discount"] = promotion.String()
	}

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformAldi, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformAldi,
		SourceAccount:  a.account,
		ReferenceID:    order.OrderCode,
		PostedAt:       postedAt,
		Amount:         payment.Neg(),
		Currency:       a.currency,
		Counterparty:   "ALDI奥乐齐",
		Narration:      order.Store,
		Direction:      model.DirectionExpense,
		Postings:       aldiPostings(order.Products),
		Raw:            raw,
	}, true
}

func aldiPostings(products []aldiProduct) []model.Posting {
	if len(products) == 0 {
		return nil
	}
	postings := make([]model.Posting, 0, len(products))
	for _, p := range products {
		price, err := decimal.NewFromString(p.Price.String())
		if err != nil {
			continue
		}
		qty, err := decimal.NewFromString(p.Num.String())
		if err != nil || !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		postings = append(postings, model.Posting{
			Amount:  price.Mul(qty).Neg(),
			Memo:    p.Name,
			Account: aldiItemAccount(p.Name),
		})
	}
	return postings
}
