package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaylabs/relay/internal/extract"
	"github.com/relaylabs/relay/internal/nemsis"
)

const extractionSystemPrompt = `You are a clinical documentation assistant for emergency medical services.
You receive the current patient record as JSON and a new fragment of a live radio transcript.
Return ONLY the fields newly mentioned in the fragment, as JSON matching the given schema.
Use null for anything the fragment does not state. Never guess or infer values.
Ages are reported as strings. Gender is "male" or "female".`

// completionClient is the slice of the OpenAI client the extractor uses.
// *openai.Client satisfies it.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type LLMConfig struct {
	APIKey string
	Model  string
}

// LLMExtractor extracts record fields from transcript increments with a
// schema-constrained chat completion. Any provider or decode failure falls
// back to the rule-based extractor so a committed segment is never lost.
type LLMExtractor struct {
	client   completionClient
	model    string
	fallback extract.Extractor
}

func NewLLMExtractor(cfg LLMConfig) *LLMExtractor {
	return &LLMExtractor{
		client:   openai.NewClient(cfg.APIKey),
		model:    cfg.Model,
		fallback: extract.NewRuleBased(),
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, increment string, existing *nemsis.Record) (*nemsis.Record, error) {
	if strings.TrimSpace(increment) == "" {
		return existing.Clone(), nil
	}

	currentJSON, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("marshal current record: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Current record:\n%s\n\nNew transcript fragment:\n%s",
					string(currentJSON), increment),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "nemsis_extraction",
				Schema: json.RawMessage(recordSchema),
				Strict: true,
			},
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Warn("llm extraction failed; falling back to rules", "error", err)
		return e.fallback.Extract(ctx, increment, existing)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("llm extraction returned no choices; falling back to rules")
		return e.fallback.Extract(ctx, increment, existing)
	}

	var parsed nemsis.Record
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		slog.Warn("llm extraction returned undecodable payload; falling back to rules", "error", err)
		return e.fallback.Extract(ctx, increment, existing)
	}

	return nemsis.Merge(existing, &parsed), nil
}

// recordSchema mirrors the JSON shape of nemsis.Record. Strict mode makes
// the model emit every key, with null for unknowns.
const recordSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["patient", "vitals", "situation", "procedures", "medications"],
  "properties": {
    "patient": {
      "type": "object",
      "additionalProperties": false,
      "required": ["patient_name_first", "patient_name_last", "patient_age", "patient_gender", "patient_address", "patient_city", "patient_state", "patient_zip"],
      "properties": {
        "patient_name_first": {"type": ["string", "null"]},
        "patient_name_last": {"type": ["string", "null"]},
        "patient_age": {"type": ["string", "null"]},
        "patient_gender": {"type": ["string", "null"], "enum": ["male", "female", null]},
        "patient_address": {"type": ["string", "null"]},
        "patient_city": {"type": ["string", "null"]},
        "patient_state": {"type": ["string", "null"]},
        "patient_zip": {"type": ["string", "null"]}
      }
    },
    "vitals": {
      "type": "object",
      "additionalProperties": false,
      "required": ["systolic_bp", "diastolic_bp", "heart_rate", "respiratory_rate", "spo2", "blood_glucose", "gcs_total"],
      "properties": {
        "systolic_bp": {"type": ["integer", "null"]},
        "diastolic_bp": {"type": ["integer", "null"]},
        "heart_rate": {"type": ["integer", "null"]},
        "respiratory_rate": {"type": ["integer", "null"]},
        "spo2": {"type": ["integer", "null"]},
        "blood_glucose": {"type": ["number", "null"]},
        "gcs_total": {"type": ["integer", "null"]}
      }
    },
    "situation": {
      "type": "object",
      "additionalProperties": false,
      "required": ["chief_complaint", "primary_impression"],
      "properties": {
        "chief_complaint": {"type": ["string", "null"]},
        "primary_impression": {"type": ["string", "null"]}
      }
    },
    "procedures": {
      "type": "object",
      "additionalProperties": false,
      "required": ["procedures"],
      "properties": {
        "procedures": {"type": "array", "items": {"type": "string"}}
      }
    },
    "medications": {
      "type": "object",
      "additionalProperties": false,
      "required": ["medications"],
      "properties": {
        "medications": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`
