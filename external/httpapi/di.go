package httpapi

import (
	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/eventbus"
	"github.com/relaylabs/relay/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		manager := do.MustInvoke[*session.Manager](i)
		bus := do.MustInvoke[*eventbus.Bus](i)
		return NewServer(cfg, manager, bus), nil
	})
}
