package categorize

// Expense category leaves with their Chinese labels, grouped by parent.
var expenseTaxonomy = map[string]map[string]string{
	"Expenses:Food": {
		"Restaurant": "餐饮",
		"Coffee":     "咖啡",
		"Delivery":   "外卖",
		"Grocery":    "超市",
	},
	"Expenses:Transport": {
		"Taxi":          "打车",
		"PublicTransit": "公交地铁",
		"Parking":       "停车",
		"Gas":           "加油",
	},
	"Expenses:Housing": {
		"Rent":        "房租",
		"PropertyFee": "物业",
		"Utilities":   "水电燃气",
	},
	"Expenses:Shopping": {
		"Clothing":    "服饰",
		"Electronics": "数码",
		"DailyGoods":  "日用品",
		"HomeGoods":   "家居",
	},
	"Expenses:Entertainment": {
		"Movie":        "电影",
		"Games":        "游戏",
		"Subscription": "订阅",
		"Travel":       "旅行",
	},
	"Expenses:Health": {
		"Medical":  "医疗",
		"Medicine": "药品",
		"Fitness":  "运动健身",
	},
	"Expenses:Education": {
		"Books":    "书籍",
		"Courses":  "课程",
		"Training": "培训",
	},
	"Expenses:Finance": {
		"Fees":      "手续费",
		"Interest":  "利息支出",
		"Insurance": "保险",
	},
}

var incomeTaxonomy = map[string]string{
	"Income:Salary":     "工资",
	"Income:Bonus":      "奖金",
	"Income:Investment": "投资收益",
	"Income:Interest":   "利息收入",
	"Income:Refund":     "退款",
}

// AllCategories returns every category account name in the taxonomy.
func AllCategories() []string {
	var categories []string
	for parent, children := range expenseTaxonomy {
		for child := range children {
			categories = append(categories, parent+":"+child)
		}
	}
	for account := range incomeTaxonomy {
		categories = append(categories, account)
	}
	return categories
}
