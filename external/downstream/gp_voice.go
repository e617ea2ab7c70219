package downstream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/relaylabs/relay/internal/downstream"
)

const elevenLabsAPIBase = "https://api.elevenlabs.io"

type GPVoiceConfig struct {
	APIKey         string
	AgentID        string
	PhoneNumberID  string
	RecordsEmail   string
	CallbackNumber string
}

// GPVoiceClient requests patient records from the registered GP practice by
// placing an outbound voice-agent call. Without full credentials it runs as
// a stub that reports what it would have done.
type GPVoiceClient struct {
	http           *resty.Client
	agentID        string
	phoneNumberID  string
	recordsEmail   string
	callbackNumber string
	configured     bool
}

func NewGPVoiceClient(cfg GPVoiceConfig) downstream.GPRecordSource {
	configured := strings.TrimSpace(cfg.APIKey) != "" &&
		strings.TrimSpace(cfg.AgentID) != "" &&
		strings.TrimSpace(cfg.PhoneNumberID) != ""

	client := resty.New().
		SetBaseURL(elevenLabsAPIBase).
		SetTimeout(30 * time.Second).
		SetHeader("xi-api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &GPVoiceClient{
		http:           client,
		agentID:        cfg.AgentID,
		phoneNumberID:  cfg.PhoneNumberID,
		recordsEmail:   cfg.RecordsEmail,
		callbackNumber: cfg.CallbackNumber,
		configured:     configured,
	}
}

type outboundCallRequest struct {
	AgentID            string              `json:"agent_id"`
	AgentPhoneNumberID string              `json:"agent_phone_number_id"`
	ConversationData   conversationInitial `json:"conversation_initiation_client_data"`
}

type conversationInitial struct {
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

type outboundCallResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (c *GPVoiceClient) FetchRecords(ctx context.Context, patient downstream.Identity) (string, error) {
	if !c.configured {
		detail := fmt.Sprintf("[GP STUB] Would call GP practice to request records for %s (age %s). Voice credentials not configured.",
			patient.FullName, patient.Age)
		return detail, downstream.ErrNotConfigured
	}

	req := outboundCallRequest{
		AgentID:            c.agentID,
		AgentPhoneNumberID: c.phoneNumberID,
		ConversationData: conversationInitial{
			DynamicVariables: map[string]string{
				"patient_full_name": patient.FullName,
				"patient_age":       patient.Age,
				"patient_gender":    patient.Gender,
				"patient_address":   patient.Address,
				"records_email":     c.recordsEmail,
				"callback_number":   c.callbackNumber,
			},
		},
	}

	var result outboundCallResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/convai/twilio/outbound-call")
	if err != nil {
		return "", fmt.Errorf("gp outbound call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gp outbound call: status %d: %s", resp.StatusCode(), resp.String())
	}
	if !result.Success {
		return "", fmt.Errorf("gp outbound call rejected: %s", result.Message)
	}

	slog.Info("gp records call initiated", "conversation_id", result.ConversationID, "patient", patient.FullName)
	return fmt.Sprintf("GP practice contacted for %s; records requested via conversation %s.",
		patient.FullName, result.ConversationID), nil
}
