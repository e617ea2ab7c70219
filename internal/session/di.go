package session

import (
	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/downstream"
	"github.com/relaylabs/relay/internal/eventbus"
	"github.com/relaylabs/relay/internal/extract"
	"github.com/relaylabs/relay/internal/store"
	"github.com/relaylabs/relay/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*eventbus.Bus, error) {
		c := do.MustInvoke[*config.Config](i)
		return eventbus.New(c.EventQueueSize), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		return NewManager(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[store.CaseStore](i),
			do.MustInvoke[transcriber.Transport](i),
			do.MustInvoke[extract.Extractor](i),
			do.MustInvoke[*downstream.Dispatcher](i),
			do.MustInvoke[*eventbus.Bus](i),
		), nil
	})
}
