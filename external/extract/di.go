package extract

import (
	"log/slog"

	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/extract"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (extract.Extractor, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.LLMConfigured() {
			slog.Warn("llm credential not configured; using rule-based extraction only")
			return extract.NewRuleBased(), nil
		}
		return NewLLMExtractor(LLMConfig{
			APIKey: c.OpenAIAPIKey,
			Model:  c.OpenAIModel,
		}), nil
	})
}
