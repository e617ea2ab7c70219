package transcriber

import (
	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transport, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewScribeTransport(ScribeConfig{
			APIKey:   c.ElevenLabsAPIKey,
			Language: c.TranscribeLanguage,
		}), nil
	})
}
