package downstream

import (
	"time"

	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/downstream"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (downstream.GPRecordSource, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewGPVoiceClient(GPVoiceConfig{
			APIKey:         c.ElevenLabsAPIKey,
			AgentID:        c.ElevenLabsAgentID,
			PhoneNumberID:  c.ElevenLabsPhoneNumberID,
			RecordsEmail:   c.RecordsEmail,
			CallbackNumber: c.HospitalCallback,
		}), nil
	})
	do.Provide(injector, func(i do.Injector) (downstream.MedicalHistorySource, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewMedicalDBClient(MedicalDBConfig{BaseURL: c.MedicalDBBaseURL}), nil
	})
	do.Provide(injector, func(i do.Injector) (*downstream.Dispatcher, error) {
		c := do.MustInvoke[*config.Config](i)
		gp := do.MustInvoke[downstream.GPRecordSource](i)
		history := do.MustInvoke[downstream.MedicalHistorySource](i)
		timeout := time.Duration(c.DownstreamTimeoutSec) * time.Second
		return downstream.NewDispatcher(gp, history, timeout), nil
	})
}
