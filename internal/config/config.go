package config

import "fmt"

type Config struct {
	Env            string
	HTTPListenAddr string
	DatabaseURL    string

	// ElevenLabs speech-to-text. An empty key puts transcript sessions into
	// degraded no-op mode instead of failing startup.
	ElevenLabsAPIKey        string
	ElevenLabsAgentID       string
	ElevenLabsPhoneNumberID string
	TranscribeLanguage      string

	// LLM extraction backend. An empty key selects the rule-based extractor.
	OpenAIAPIKey string
	OpenAIModel  string

	// Downstream lookup collaborators.
	MedicalDBBaseURL     string
	HospitalCallback     string
	RecordsEmail         string
	DownstreamTimeoutSec int

	EventQueueSize int
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", c.EventQueueSize)
	}
	if c.DownstreamTimeoutSec <= 0 {
		return fmt.Errorf("DOWNSTREAM_TIMEOUT_SEC must be positive, got %d", c.DownstreamTimeoutSec)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "HTTP_LISTEN_ADDR", value: c.HTTPListenAddr},
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// TranscriptionConfigured reports whether a live speech-to-text credential is
// available.
func (c *Config) TranscriptionConfigured() bool {
	return c.ElevenLabsAPIKey != ""
}

// LLMConfigured reports whether the LLM extraction backend can be used.
func (c *Config) LLMConfigured() bool {
	return c.OpenAIAPIKey != ""
}
