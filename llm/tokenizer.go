package llm

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator 估算提示词 token 数，用于日志、指标与超长拒绝，不做截断。
// 编码表在首次使用时懒加载（tiktoken 可能需要下载数据）。
type Estimator struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewEstimator 创建基于 cl100k_base 的估算器。
func NewEstimator() *Estimator {
	return &Estimator{encoding: "cl100k_base"}
}

func (e *Estimator) init() error {
	e.once.Do(func() {
		e.enc, e.initErr = tiktoken.GetEncoding(e.encoding)
	})
	return e.initErr
}

// Estimate 返回文本的估算 token 数。编码表不可用时退化为
// 字符数/4 的粗略估算，绝不因此报错。
func (e *Estimator) Estimate(text string) int {
	if err := e.init(); err != nil {
		return utf8.RuneCountInString(text) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}
