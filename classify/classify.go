// Package classify 为卡片文本给出学科标签，标签只用于文件名。
package classify

import "strings"

// 候选学科标签。
const (
	Mathematics      = "Mathematics"
	Physics          = "Physics"
	Chemistry        = "Chemistry"
	Biology          = "Biology"
	General          = "General"
	History          = "History"
	ComputerScience  = "Computer Science"
	PoliticalScience = "Political Science"
)

// Labels 列出全部候选标签。
var Labels = []string{Mathematics, Physics, Chemistry, Biology, General, History, ComputerScience, PoliticalScience}

// Classifier 根据文本返回一个学科标签。
type Classifier interface {
	Classify(text string) string
}

// Rule 将关键词映射到标签，任一关键词作为子串出现即命中。
type Rule struct {
	Label    string
	Keywords []string
}

// DefaultRules 按优先级排列，先命中者胜出。
var DefaultRules = []Rule{
	{Mathematics, []string{"math", "algebra", "equation", "theorem"}},
	{Physics, []string{"physics", "force", "energy", "motion"}},
	{Chemistry, []string{"chemistry", "reaction", "atom", "molecule"}},
	{Biology, []string{"biology", "cell", "organism", "gene"}},
	{History, []string{"history", "empire", "dynasty", "revolution", "ancient"}},
	{ComputerScience, []string{"computer", "algorithm", "software", "programming"}},
	{PoliticalScience, []string{"politic", "government", "election", "democracy"}},
}

// KeywordClassifier 不区分大小写地按规则顺序匹配，未命中返回 General。
type KeywordClassifier struct {
	Rules []Rule
}

var _ Classifier = KeywordClassifier{}

// NewKeywordClassifier 使用 DefaultRules 创建分类器。
func NewKeywordClassifier() KeywordClassifier {
	return KeywordClassifier{Rules: DefaultRules}
}

func (c KeywordClassifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range c.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Label
			}
		}
	}
	return General
}
