package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/llm"
	"github.com/BaSui01/socialforge/llm/providers"
	"github.com/BaSui01/socialforge/llm/providers/gemini"
	"github.com/BaSui01/socialforge/llm/providers/openai"
	"github.com/BaSui01/socialforge/types"
)

// Options 汇总所有 Provider 的连接配置，按名字选用其一。
type Options struct {
	Gemini providers.GeminiConfig
	OpenAI providers.OpenAIConfig
}

// New 按名字构造 Provider。密钥缺失在这里拦下，属于配置错误，
// 不会发出任何外部调用。
func New(name string, opts Options, logger *zap.Logger) (llm.Provider, error) {
	switch name {
	case "gemini":
		if opts.Gemini.APIKey == "" {
			return nil, types.NewError(types.ErrMissingCredentials, "gemini api key is not set")
		}
		return gemini.New(opts.Gemini, logger), nil
	case "openai":
		if opts.OpenAI.APIKey == "" {
			return nil, types.NewError(types.ErrMissingCredentials, "openai api key is not set")
		}
		return openai.New(opts.OpenAI, logger), nil
	default:
		return nil, types.NewError(types.ErrInvalidConfig, fmt.Sprintf("unknown provider %q", name))
	}
}
