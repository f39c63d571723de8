// Package categorize assigns expense/income accounts to transactions using
// keyword and regex rules. It runs after matching, on the canonical record of
// each group, and never influences how records are matched.
package categorize

import (
	"regexp"
	"strings"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// KeywordRule maps a substring to a category account. Rules are evaluated in
// order, so more specific keywords must come before generic ones (e.g.
// 华为一卡通 before any generic 华为 rule, 充电宝 before 充电).
type KeywordRule struct {
	Keyword string
	Account string
}

// RegexRule maps a compiled pattern to a category account.
type RegexRule struct {
	Pattern *regexp.Regexp
	Account string
}

// defaultKeywordRules is the built-in keyword corpus for the common Chinese
// merchant landscape. Order matters.
var defaultKeywordRules = []KeywordRule{
	// JD platform categories (raw category text)
	{"数码电器", "Expenses:Shopping:Electronics"},
	{"手机通讯", "Expenses:Shopping:Electronics"},
	{"电脑办公", "Expenses:Shopping:Electronics"},
	{"家用电器", "Expenses:Shopping:Electronics"},
	{"美妆个护", "Expenses:Shopping:DailyGoods"},
	{"清洁纸品", "Expenses:Shopping:DailyGoods"},
	{"日用百货", "Expenses:Shopping:DailyGoods"},
	{"鞋服箱包", "Expenses:Shopping:Clothing"},
	{"食品酒饮", "Expenses:Food:Grocery"},
	{"家居家装", "Expenses:Shopping:HomeGoods"},
	{"图书文娱", "Expenses:Education:Books"},
	{"教育培训", "Expenses:Education:Courses"},
	{"运动户外", "Expenses:Health:Fitness"},
	{"医疗保健", "Expenses:Health:Medical"},
	{"生活服务", "Expenses:Shopping:DailyGoods"},
	{"12306", "Expenses:Transport:PublicTransit"},
	// Campus canteens, before any generic vendor keyword
	{"华为一卡通", "Expenses:Food:Restaurant"},
	{"食堂", "Expenses:Food:Restaurant"},
	// Coffee
	{"星巴克", "Expenses:Food:Coffee"},
	{"starbucks", "Expenses:Food:Coffee"},
	{"瑞幸", "Expenses:Food:Coffee"},
	{"luckin", "Expenses:Food:Coffee"},
	{"manner", "Expenses:Food:Coffee"},
	{"太平洋咖啡", "Expenses:Food:Coffee"},
	{"蓝瓶咖啡", "Expenses:Food:Coffee"},
	{"咖啡", "Expenses:Food:Coffee"},
	{"coffee", "Expenses:Food:Coffee"},
	{"cafe", "Expenses:Food:Coffee"},
	// Transport: taxi and ride-hailing
	{"滴滴出行", "Expenses:Transport:Taxi"},
	{"滴滴", "Expenses:Transport:Taxi"},
	{"高德打车", "Expenses:Transport:Taxi"},
	{"出租车", "Expenses:Transport:Taxi"},
	{"货拉拉", "Expenses:Transport:Taxi"},
	// Transport: public transit and shared mobility
	{"地铁", "Expenses:Transport:PublicTransit"},
	{"轨道交通", "Expenses:Transport:PublicTransit"},
	{"公交", "Expenses:Transport:PublicTransit"},
	{"深圳通", "Expenses:Transport:PublicTransit"},
	{"青桔单车", "Expenses:Transport:PublicTransit"},
	{"哈啰", "Expenses:Transport:PublicTransit"},
	// Food: delivery
	{"美团外卖", "Expenses:Food:Delivery"},
	{"饿了么", "Expenses:Food:Delivery"},
	// Food: restaurants
	{"麦当劳", "Expenses:Food:Restaurant"},
	{"金拱门", "Expenses:Food:Restaurant"},
	{"肯德基", "Expenses:Food:Restaurant"},
	{"kfc", "Expenses:Food:Restaurant"},
	{"必胜客", "Expenses:Food:Restaurant"},
	{"餐饮", "Expenses:Food:Restaurant"},
	{"餐厅", "Expenses:Food:Restaurant"},
	{"饭店", "Expenses:Food:Restaurant"},
	{"面馆", "Expenses:Food:Restaurant"},
	{"火锅", "Expenses:Food:Restaurant"},
	{"海底捞", "Expenses:Food:Restaurant"},
	{"拉面", "Expenses:Food:Restaurant"},
	{"米线", "Expenses:Food:Restaurant"},
	{"美团平台商户", "Expenses:Food:Restaurant"},
	{"美团", "Expenses:Food:Restaurant"},
	{"大众点评", "Expenses:Food:Restaurant"},
	{"奈雪", "Expenses:Food:Restaurant"},
	{"甜品", "Expenses:Food:Restaurant"},
	{"烘焙", "Expenses:Food:Restaurant"},
	// Food: grocery
	{"华润万家", "Expenses:Food:Grocery"},
	{"沃尔玛", "Expenses:Food:Grocery"},
	{"盒马", "Expenses:Food:Grocery"},
	{"永辉超市", "Expenses:Food:Grocery"},
	{"超市", "Expenses:Food:Grocery"},
	{"便利店", "Expenses:Food:Grocery"},
	{"7-eleven", "Expenses:Food:Grocery"},
	{"全家", "Expenses:Food:Grocery"},
	{"罗森", "Expenses:Food:Grocery"},
	{"百果园", "Expenses:Food:Grocery"},
	{"水果", "Expenses:Food:Grocery"},
	{"宜家", "Expenses:Shopping:HomeGoods"},
	// Shopping
	{"优衣库", "Expenses:Shopping:Clothing"},
	{"uniqlo", "Expenses:Shopping:Clothing"},
	{"迪卡侬", "Expenses:Shopping:Clothing"},
	{"名创优品", "Expenses:Shopping:DailyGoods"},
	{"无印良品", "Expenses:Shopping:DailyGoods"},
	{"muji", "Expenses:Shopping:DailyGoods"},
	{"小米", "Expenses:Shopping:Electronics"},
	{"京东", "Expenses:Shopping:DailyGoods"},
	{"淘宝", "Expenses:Shopping:DailyGoods"},
	{"拼多多", "Expenses:Shopping:DailyGoods"},
	// Entertainment
	{"电影", "Expenses:Entertainment:Movie"},
	{"影院", "Expenses:Entertainment:Movie"},
	{"影城", "Expenses:Entertainment:Movie"},
	{"steam", "Expenses:Entertainment:Games"},
	{"博物馆", "Expenses:Entertainment:Travel"},
	{"携程", "Expenses:Entertainment:Travel"},
	{"酒店", "Expenses:Entertainment:Travel"},
	{"bilibili", "Expenses:Entertainment:Subscription"},
	{"netflix", "Expenses:Entertainment:Subscription"},
	// Housing
	{"物业", "Expenses:Housing:PropertyFee"},
	{"房租", "Expenses:Housing:Rent"},
	{"水电", "Expenses:Housing:Utilities"},
	{"燃气", "Expenses:Housing:Utilities"},
	{"生活缴费", "Expenses:Housing:Utilities"},
	// Health
	{"门诊", "Expenses:Health:Medical"},
	{"医院", "Expenses:Health:Medical"},
	{"药房", "Expenses:Health:Medicine"},
	{"药店", "Expenses:Health:Medicine"},
	{"游泳", "Expenses:Health:Fitness"},
	{"健身", "Expenses:Health:Fitness"},
	// Education
	{"书店", "Expenses:Education:Books"},
	{"图书", "Expenses:Education:Books"},
	{"课程", "Expenses:Education:Courses"},
	{"培训", "Expenses:Education:Training"},
	// Finance
	{"手续费", "Expenses:Finance:Fees"},
	{"利息", "Expenses:Finance:Interest"},
	{"保险", "Expenses:Finance:Insurance"},
	// Logistics and telecom
	{"顺丰", "Expenses:Shopping:DailyGoods"},
	{"丰巢", "Expenses:Shopping:DailyGoods"},
	{"联通", "Expenses:Housing:Utilities"},
	{"电信", "Expenses:Housing:Utilities"},
	{"中国移动", "Expenses:Housing:Utilities"},
	{"手机充值", "Expenses:Housing:Utilities"},
	// Power-bank rentals, before the generic 充电 rule
	{"街电", "Expenses:Shopping:DailyGoods"},
	{"怪兽充电", "Expenses:Shopping:DailyGoods"},
	{"充电宝", "Expenses:Shopping:DailyGoods"},
	{"充电", "Expenses:Transport:Gas"},
}

var defaultRegexRules = []RegexRule{
	{regexp.MustCompile(`美团.*外卖`), "Expenses:Food:Delivery"},
	{regexp.MustCompile(`(?i)uber.*eats`), "Expenses:Food:Delivery"},
	{regexp.MustCompile(`(?i)工资|薪资|salary`), "Income:Salary"},
	{regexp.MustCompile(`退款|退货`), "Income:Refund"},
	{regexp.MustCompile(`利息.*收入`), "Income:Interest"},
	{regexp.MustCompile(`红包`), "Income:Uncategorized"},
	{regexp.MustCompile(`信用卡还款`), "Expenses:Finance:Fees"},
	{regexp.MustCompile(`转账`), "Expenses:Uncategorized"},
}

// Categorizer resolves a category account from transaction text. Keyword
// rules run before regex rules; first hit wins.
type Categorizer struct {
	keywordRules []KeywordRule
	regexRules   []RegexRule
}

// New builds a categorizer from the default rules plus user overrides. User
// keyword rules are checked before the defaults, as are user regex rules.
func New(keywordRules []KeywordRule, regexRules []RegexRule) *Categorizer {
	return &Categorizer{
		keywordRules: append(append([]KeywordRule{}, keywordRules...), defaultKeywordRules...),
		regexRules:   append(append([]RegexRule{}, regexRules...), defaultRegexRules...),
	}
}

// Categorize returns the category account for a transaction, or "" when no
// rule applies.
func (c *Categorizer) Categorize(tx model.Transaction) string {
	text := tx.Counterparty + " " + tx.Narration
	if tx.RawCategory != "" {
		text += " " + tx.RawCategory
	}
	return c.CategorizeText(text)
}

// CategorizeText runs the rules over free text, e.g. an itemized receipt line.
func (c *Categorizer) CategorizeText(text string) string {
	text = strings.ToLower(text)
	for _, rule := range c.keywordRules {
		if strings.Contains(text, strings.ToLower(rule.Keyword)) {
			return rule.Account
		}
	}
	for _, rule := range c.regexRules {
		if rule.Pattern.MatchString(text) {
			return rule.Account
		}
	}
	return ""
}
