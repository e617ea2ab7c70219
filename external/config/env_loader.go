package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/relaylabs/relay/internal/config"
)

type envConfig struct {
	Env                     string `env:"ENV" envDefault:"production"`
	HTTPListenAddr          string `env:"HTTP_LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL             string `env:"DATABASE_URL,required"`
	ElevenLabsAPIKey        string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsAgentID       string `env:"ELEVENLABS_AGENT_ID"`
	ElevenLabsPhoneNumberID string `env:"ELEVENLABS_PHONE_NUMBER_ID"`
	TranscribeLanguage      string `env:"TRANSCRIBE_LANGUAGE" envDefault:"en"`
	OpenAIAPIKey            string `env:"OPENAI_API_KEY"`
	OpenAIModel             string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	MedicalDBBaseURL        string `env:"MEDICAL_DB_BASE_URL"`
	HospitalCallback        string `env:"HOSPITAL_CALLBACK_NUMBER" envDefault:"+1-555-0100"`
	RecordsEmail            string `env:"RECORDS_EMAIL" envDefault:"records@relay.example"`
	DownstreamTimeoutSec    int    `env:"DOWNSTREAM_TIMEOUT_SEC" envDefault:"30"`
	EventQueueSize          int    `env:"EVENT_QUEUE_SIZE" envDefault:"64"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                     raw.Env,
		HTTPListenAddr:          raw.HTTPListenAddr,
		DatabaseURL:             raw.DatabaseURL,
		ElevenLabsAPIKey:        raw.ElevenLabsAPIKey,
		ElevenLabsAgentID:       raw.ElevenLabsAgentID,
		ElevenLabsPhoneNumberID: raw.ElevenLabsPhoneNumberID,
		TranscribeLanguage:      raw.TranscribeLanguage,
		OpenAIAPIKey:            raw.OpenAIAPIKey,
		OpenAIModel:             raw.OpenAIModel,
		MedicalDBBaseURL:        raw.MedicalDBBaseURL,
		HospitalCallback:        raw.HospitalCallback,
		RecordsEmail:            raw.RecordsEmail,
		DownstreamTimeoutSec:    raw.DownstreamTimeoutSec,
		EventQueueSize:          raw.EventQueueSize,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
