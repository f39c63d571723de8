// Package ledger renders matched transaction groups as beancount-style plain
// text. Each merged group becomes exactly one entry; the non-canonical side of
// a matched pair survives only as metadata, never as a second entry.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/categorize"
	"github.com/liuming-dev/ledgerlink/internal/domain/matching"
	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// Writer renders match groups into a .bean file. The categorizer picks the
// counter account; uncategorizable entries land in the Uncategorized buckets.
type Writer struct {
	categorizer *categorize.Categorizer
}

func NewWriter(c *categorize.Categorizer) *Writer {
	if c == nil {
		c = categorize.New(nil, nil)
	}
	return &Writer{categorizer: c}
}

// WriteGroups writes one entry per group, sorted by date then record ID.
// Matched pairs carry an ^mlk-NNNNNN link unique within the file.
func (w *Writer) WriteGroups(groups []matching.MatchGroup, path string) error {
	merged := make([]model.Transaction, len(groups))
	linked := make([]bool, len(groups))
	for i, g := range groups {
		merged[i] = g.Merged()
		linked[i] = len(g.Links) > 0
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := merged[order[a]].PostedAt, merged[order[b]].PostedAt
		if !da.Equal(db) {
			return da.Before(db)
		}
		return merged[order[a]].ID < merged[order[b]].ID
	})

	var sb strings.Builder
	linkSeq := 0
	for _, i := range order {
		link := ""
		if linked[i] {
			linkSeq++
			link = fmt.Sprintf("mlk-%06d", linkSeq)
		}
		sb.WriteString(w.renderEntry(merged[i], link))
		sb.WriteString("\n")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

func (w *Writer) renderEntry(tx model.Transaction, link string) string {
	var sb strings.Builder

	sb.WriteString(tx.PostedAt.Format("2006-01-02"))
	sb.WriteString(" * ")
	sb.WriteString(quote(tx.Counterparty))
	sb.WriteString(" ")
	sb.WriteString(quote(tx.Narration))
	if link != "" {
		sb.WriteString(" ^")
		sb.WriteString(link)
	}
	sb.WriteString("\n")

	writeMeta := func(key, value string) {
		if value != "" {
			sb.WriteString("  ")
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(quote(value))
			sb.WriteString("\n")
		}
	}
	writeMeta("ref", tx.ReferenceID)
	writeMeta("counterpart_ref", tx.CounterpartRef)
	writeMeta("payment_method", tx.PaymentMethod)
	writeMeta("raw_category", tx.RawCategory)
	writeMeta("matched_id", tx.Raw["matched_id"])
	writeMeta("matched_platform", tx.Raw["matched_platform"])
	writeMeta("match_reason", tx.Raw["match_reason"])

	switch {
	case len(tx.Postings) > 0:
		w.renderItemized(&sb, tx)
	case crossCurrency(tx):
		w.renderCrossCurrency(&sb, tx)
	default:
		w.renderSimple(&sb, tx)
	}

	return sb.String()
}

// renderSimple writes the standard two-posting entry.
func (w *Writer) renderSimple(sb *strings.Builder, tx model.Transaction) {
	counter := w.counterAccount(tx)
	writePosting(sb, tx.SourceAccount, tx.Amount, tx.Currency, "")
	writePosting(sb, counter, tx.Amount.Neg(), tx.Currency, "")
}

// renderItemized splits the payment across the receipt's item categories,
// scaling listed prices proportionally so the postings balance the payment.
func (w *Writer) renderItemized(sb *strings.Builder, tx model.Transaction) {
	allocations := allocate(tx.Postings, tx.AbsAmount(), w.categorizer.CategorizeText)
	if len(allocations) == 0 {
		w.renderSimple(sb, tx)
		return
	}

	writePosting(sb, tx.SourceAccount, tx.Amount, tx.Currency, "")
	for _, alloc := range allocations {
		amount := alloc.Amount
		if !tx.Outflow() {
			amount = amount.Neg()
		}
		items := make([]string, len(alloc.Items))
		for i, item := range alloc.Items {
			items[i] = fmt.Sprintf("%s ¥%s", item.Memo, item.Amount.Abs().StringFixed(2))
		}
		writePosting(sb, alloc.Account, amount, tx.Currency, strings.Join(items, ", "))
	}
}

// renderCrossCurrency writes the source posting with a price annotation and a
// counter posting in the settled currency, so both legs balance exactly.
func (w *Writer) renderCrossCurrency(sb *strings.Builder, tx model.Transaction) {
	settledAmount, settledCurrency := settledSide(tx)
	settled, err := decimal.NewFromString(settledAmount)
	if err != nil || tx.AbsAmount().IsZero() {
		w.renderSimple(sb, tx)
		return
	}
	rate := settled.Abs().Div(tx.AbsAmount()).Round(6)

	sb.WriteString(fmt.Sprintf("  %s  %s %s @ %s %s\n",
		tx.SourceAccount, tx.Amount.StringFixed(2), tx.Currency,
		rate.StringFixed(6), settledCurrency))

	counter := settled.Abs()
	if !tx.Outflow() {
		counter = counter.Neg()
	}
	writePosting(sb, w.counterAccount(tx), counter, settledCurrency, "")
}

func (w *Writer) counterAccount(tx model.Transaction) string {
	if account := w.categorizer.Categorize(tx); account != "" {
		return account
	}
	return fallbackAccount(tx.Outflow())
}

func writePosting(sb *strings.Builder, account string, amount decimal.Decimal, currency, items string) {
	sb.WriteString(fmt.Sprintf("  %s  %s %s\n", account, amount.StringFixed(2), currency))
	if items != "" {
		sb.WriteString("    items: ")
		sb.WriteString(quote(items))
		sb.WriteString("\n")
	}
}

// crossCurrency reports whether the record carries a settled or foreign side
// in another currency.
func crossCurrency(tx model.Transaction) bool {
	amount, currency := settledSide(tx)
	return amount != "" && currency != "" && currency != tx.Currency
}

// settledSide returns the other-currency amount recorded on the transaction:
// the linked side of a merged cross-currency pair, or the original foreign
// price of an HK wallet payment.
func settledSide(tx model.Transaction) (amount, currency string) {
	if a, c := tx.Raw["settled_amount"], tx.Raw["settled_currency"]; a != "" && c != "" {
		return a, c
	}
	return tx.Raw["foreign_amount"], tx.Raw["foreign_currency"]
}

type categoryAmount struct {
	Account string
	Amount  decimal.Decimal
	Items   []model.Posting
}

// allocate scales each item's listed price proportionally so the category
// totals sum to the amount actually paid, then groups by category. Rounding
// residual lands on the largest category.
func allocate(items []model.Posting, totalPayment decimal.Decimal, classify func(string) string) []categoryAmount {
	listedTotal := decimal.Zero
	for _, item := range items {
		listedTotal = listedTotal.Add(item.Amount.Abs())
	}
	if listedTotal.IsZero() {
		return nil
	}

	byAccount := make(map[string]*categoryAmount)
	var accounts []string
	for _, item := range items {
		// Importer-assigned item accounts win over text categorization.
		account := item.Account
		if account == "" {
			account = classify(item.Memo)
		}
		if account == "" {
			account = "Expenses:Uncategorized"
		}
		effective := item.Amount.Abs().Mul(totalPayment).Div(listedTotal).Round(2)
		if byAccount[account] == nil {
			byAccount[account] = &categoryAmount{Account: account}
			accounts = append(accounts, account)
		}
		byAccount[account].Amount = byAccount[account].Amount.Add(effective)
		byAccount[account].Items = append(byAccount[account].Items, item)
	}
	sort.Strings(accounts)

	result := make([]categoryAmount, 0, len(byAccount))
	allocated := decimal.Zero
	for _, account := range accounts {
		result = append(result, *byAccount[account])
		allocated = allocated.Add(byAccount[account].Amount)
	}

	residual := totalPayment.Round(2).Sub(allocated)
	if !residual.IsZero() {
		largest := 0
		for i := 1; i < len(result); i++ {
			if result[i].Amount.GreaterThan(result[largest].Amount) {
				largest = i
			}
		}
		result[largest].Amount = result[largest].Amount.Add(residual)
	}

	return result
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// InitLedger scaffolds a ledger directory with main, accounts, and
// commodities files plus the include directories. Existing files are left
// untouched.
func InitLedger(dir, defaultCurrency string) error {
	if defaultCurrency == "" {
		defaultCurrency = "CNY"
	}
	for _, d := range []string{dir, filepath.Join(dir, "importers"), filepath.Join(dir, "prices")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	today := time.Now().Format("2006-01-02")
	const openDate = "1970-01-01"

	mainPath := filepath.Join(dir, "main.bean")
	if _, err := os.Stat(mainPath); os.IsNotExist(err) {
		content := fmt.Sprintf(`;; Ledger - Main File
;; Generated on %s

option "title" "Personal Finance"
option "operating_currency" "%s"

include "commodities.bean"
include "accounts.bean"
include "importers/*.bean"
`, today, defaultCurrency)
		if err := os.WriteFile(mainPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write main.bean: %w", err)
		}
	}

	commoditiesPath := filepath.Join(dir, "commodities.bean")
	if _, err := os.Stat(commoditiesPath); os.IsNotExist(err) {
		lines := []string{fmt.Sprintf(";; Currency definitions\n;; Generated on %s\n", today)}
		for _, currency := range DefaultCurrencies {
			lines = append(lines, fmt.Sprintf("%s commodity %s", openDate, currency))
		}
		if err := os.WriteFile(commoditiesPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write commodities.bean: %w", err)
		}
	}

	accountsPath := filepath.Join(dir, "accounts.bean")
	if _, err := os.Stat(accountsPath); os.IsNotExist(err) {
		// Every categorizer target must be an open account, or the first
		// categorized entry fails validation.
		descriptions := make(map[string]string, len(DefaultAccounts))
		for name, desc := range DefaultAccounts {
			descriptions[name] = desc
		}
		for _, account := range categorize.AllCategories() {
			if _, ok := descriptions[account]; !ok {
				descriptions[account] = ""
			}
		}
		names := make([]string, 0, len(descriptions))
		for name := range descriptions {
			names = append(names, name)
		}
		sort.Strings(names)

		lines := []string{fmt.Sprintf(";; Account definitions\n;; Generated on %s\n", today)}
		for _, name := range names {
			currencies := defaultCurrency
			switch {
			case strings.HasPrefix(name, "Expenses:"),
				strings.HasPrefix(name, "Income:"),
				strings.HasPrefix(name, "Equity:"):
				currencies = strings.Join(DefaultCurrencies, ",")
			case strings.Contains(name, "HK"):
				currencies = "HKD"
			}
			line := fmt.Sprintf("%s open %s %s", openDate, name, currencies)
			if desc := descriptions[name]; desc != "" {
				line += " ; " + desc
			}
			lines = append(lines, line)
		}
		if err := os.WriteFile(accountsPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			return fmt.Errorf("write accounts.bean: %w", err)
		}
	}

	return nil
}
