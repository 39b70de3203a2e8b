package sensitive

import (
	"github.com/importcjj/sensitive"
)

// Word 敏感词过滤器，用于聊天输入的前置筛查
type Word struct {
	Filter *sensitive.Filter
}

// NewWord 从词典文件构建过滤器
func NewWord(dictPath string) (*Word, error) {
	filter := sensitive.New()

	if err := filter.LoadWordDict(dictPath); err != nil {
		return nil, err
	}

	return &Word{
		Filter: filter,
	}, nil
}

func (w *Word) Validate(content string) (bool, string) {
	return w.Filter.Validate(content)
}
