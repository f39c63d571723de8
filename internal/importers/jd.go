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

// jdAmountRe parses JD amount strings, which may carry a refund
// parenthetical: "38.68", "44.28(已全额退款)", "392.98(已退款203.98)".
var jdAmountRe = regexp.MustCompile(`^([\d.]+)(?:[（(]已(?:全额)?退款([\d.]*)[）)])?$`)

// JD imports 京东 CSV exports, optionally enriched with an orders JSON file
// whose itemized lines become postings on the matching transaction. Fully
// refunded rows are skipped; partially refunded rows import their net amount.
type JD struct {
	account    string
	currency   string
	ordersFile string
}

func NewJD(account, currency, ordersFile string) *JD {
	if account == "" {
		account = "Assets:JD"
	}
	if currency == "" {
		currency = "CNY"
	}
	return &JD{account: account, currency: currency, ordersFile: ordersFile}
}

func (j *JD) Platform() model.Platform { return model.PlatformJD }
func (j *JD) AccountName() string      { return j.account }

func (j *JD) Identify(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	content, err := readFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(headLines(content, 5), "京东账号名")
}

func (j *JD) Extract(path string) ([]model.Transaction, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	rows, err := csvRows(content, "交易时间")
	if err != nil {
		return nil, err
	}

	orders, err := j.loadOrders()
	if err != nil {
		return nil, err
	}

	var txs []model.Transaction
	for i, row := range rows {
		tx, ok := j.parseRow(row, path, i, orders)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (j *JD) parseRow(row map[string]string, path string, ordinal int, orders map[string][]jdOrderItem) (model.Transaction, bool) {
	status := row["交易状态"]
	if status != "交易成功" && status != "还款成功" {
		return model.Transaction{}, false
	}

	postedAt, ok := parseDateTime(row["交易时间"])
	if !ok {
		return model.Transaction{}, false
	}

	original, refund, ok := parseJDAmount(row["金额"])
	if !ok {
		return model.Transaction{}, false
	}

	raw := map[string]string{"jd_status": status}
	var amount decimal.Decimal
	var direction model.Direction
	switch row["收/支"] {
	case "支出":
		if refund != nil {
			if refund.Equal(original) {
				return model.Transaction{}, false // fully refunded
			}
			amount = original.Sub(*refund).Neg()
			raw["jd_refund"] = refund.String()
			raw["jd_original"] = original.String()
		} else {
			amount = original.Neg()
		}
		direction = model.DirectionExpense
	case "收入":
		amount = original
		direction = model.DirectionIncome
	case "不计收支":
		amount = original.Neg()
		direction = model.DirectionTransfer
	default:
		amount = original.Neg()
		direction = model.DirectionOther
	}

	merchantNo := row["商家订单号"]

	return model.Transaction{
		ID:             model.DeriveID(model.PlatformJD, filepath.Base(path), ordinal),
		SourcePlatform: model.PlatformJD,
		SourceAccount:  j.account,
		ReferenceID:    row["交易订单号"],
		CounterpartRef: merchantNo,
		PostedAt:       postedAt,
		Amount:         amount,
		Currency:       j.currency,
		Counterparty:   row["商户名称"],
		Narration:      row["交易说明"],
		PaymentMethod:  slashEmpty(row["收/付款方式"]),
		RawCategory:    row["交易分类"],
		Direction:      direction,
		Postings:       jdPostings(orders[merchantNo]),
		Raw:            raw,
	}, true
}

func slashEmpty(s string) string {
	if s == "/" {
		return ""
	}
	return s
}

// parseJDAmount splits an amount string into the original amount and an
// optional refunded portion. A bare "(已全额退款)" means a full refund.
func parseJDAmount(s string) (original decimal.Decimal, refund *decimal.Decimal, ok bool) {
	m := jdAmountRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return decimal.Decimal{}, nil, false
	}
	original, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Decimal{}, nil, false
	}
	if m[2] == "" && !strings.ContainsAny(s, "（(") {
		return original, nil, true
	}
	if m[2] == "" {
		r := original
		return original, &r, true
	}
	r, err := decimal.NewFromString(m[2])
	if err != nil {
		return decimal.Decimal{}, nil, false
	}
	return original, &r, true
}

// jdOrderItem is one product line in the orders JSON export.
type jdOrderItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Num   int    `json:"num"`
}

type jdOrder struct {
	OrderID       string        `json:"order_id"`
	ParentOrderID string        `json:"parent_order_id"`
	Status        string        `json:"status"`
	Items         []jdOrderItem `json:"items"`
}

type jdOrdersFile struct {
	Orders []jdOrder `json:"orders"`
}

// loadOrders builds an item lookup keyed by merchant order number (the
// parent order id when the order was split). Only completed orders count.
func (j *JD) loadOrders() (map[string][]jdOrderItem, error) {
	if j.ordersFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(j.ordersFile)
	if err != nil {
		return nil, err
	}
	var file jdOrdersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	lookup := make(map[string][]jdOrderItem)
	for _, order := range file.Orders {
		if order.Status != "已完成" {
			continue
		}
		key := order.ParentOrderID
		if key == "" {
			key = order.OrderID
		}
		if key != "" {
			lookup[key] = append(lookup[key], order.Items...)
		}
	}
	return lookup, nil
}

func jdPostings(items []jdOrderItem) []model.Posting {
	if len(items) == 0 {
		return nil
	}
	postings := make([]model.Posting, 0, len(items))
	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			continue
		}
		num := item.Num
		if num <= 0 {
			num = 1
		}
		postings = append(postings, model.Posting{
			Amount: price.Mul(decimal.NewFromInt(int64(num))).Neg(),
			Memo:   item.Name,
		})
	}
	return postings
}
