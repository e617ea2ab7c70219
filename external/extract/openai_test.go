package extract

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaylabs/relay/internal/extract"
	"github.com/relaylabs/relay/internal/nemsis"
)

type fakeCompletionClient struct {
	content string
	err     error
	gotReq  openai.ChatCompletionRequest
}

func (f *fakeCompletionClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.gotReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestExtractor(client completionClient) *LLMExtractor {
	return &LLMExtractor{
		client:   client,
		model:    "gpt-4o-mini",
		fallback: extract.NewRuleBased(),
	}
}

func TestLLMExtractor_MergesModelOutput(t *testing.T) {
	client := &fakeCompletionClient{
		content: `{
			"patient": {"patient_name_first": "John", "patient_name_last": "Smith", "patient_age": "45", "patient_gender": "male",
				"patient_address": null, "patient_city": null, "patient_state": null, "patient_zip": null},
			"vitals": {"systolic_bp": 120, "diastolic_bp": 80, "heart_rate": null, "respiratory_rate": null, "spo2": null, "blood_glucose": null, "gcs_total": null},
			"situation": {"chief_complaint": "chest pain", "primary_impression": null},
			"procedures": {"procedures": ["IV access"]},
			"medications": {"medications": ["Aspirin 324mg"]}
		}`,
	}
	e := newTestExtractor(client)

	existing := nemsis.NewRecord()
	existing.Patient.Age = nemsis.Str("50")

	got, err := e.Extract(context.Background(), "some transcript", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Patient.NameFirst == nil || *got.Patient.NameFirst != "John" {
		t.Fatal("expected first name merged from model output")
	}
	if *got.Patient.Age != "50" {
		t.Fatalf("existing age must win the merge, got %q", *got.Patient.Age)
	}
	if got.Vitals.SystolicBP == nil || *got.Vitals.SystolicBP != 120 {
		t.Fatal("expected systolic merged from model output")
	}
	if len(got.Procedures.Procedures) != 1 || got.Procedures.Procedures[0] != "IV access" {
		t.Fatalf("unexpected procedures: %v", got.Procedures.Procedures)
	}
	if existing.Patient.NameFirst != nil {
		t.Fatal("input record must not be mutated")
	}
	if client.gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", client.gotReq.Model)
	}
	if client.gotReq.ResponseFormat == nil || client.gotReq.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONSchema {
		t.Fatal("expected schema-constrained response format")
	}
}

func TestLLMExtractor_FallsBackOnProviderError(t *testing.T) {
	e := newTestExtractor(&fakeCompletionClient{err: errors.New("rate limited")})

	existing := nemsis.NewRecord()
	got, err := e.Extract(context.Background(), "Patient is a 45 year old male", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The rule extractor still captures what it can from the fragment.
	if got.Patient.Age == nil || *got.Patient.Age != "45" {
		t.Fatal("expected rule-based fallback to extract the age")
	}
	if got.Patient.Gender == nil || *got.Patient.Gender != "Male" {
		t.Fatal("expected rule-based fallback to extract the gender")
	}
}

func TestLLMExtractor_FallsBackOnMalformedOutput(t *testing.T) {
	e := newTestExtractor(&fakeCompletionClient{content: "I'm sorry, I cannot do that"})

	existing := nemsis.NewRecord()
	existing.Patient.NameFirst = nemsis.Str("Jane")

	got, err := e.Extract(context.Background(), "no extractable content here", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Patient.NameFirst == nil || *got.Patient.NameFirst != "Jane" {
		t.Fatal("existing fields must survive a malformed model response")
	}
}

func TestLLMExtractor_EmptyIncrementSkipsProvider(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("should not be called")}
	e := newTestExtractor(client)

	existing := nemsis.NewRecord()
	existing.Patient.Age = nemsis.Str("30")

	got, err := e.Extract(context.Background(), "   ", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got.Patient.Age != "30" {
		t.Fatal("expected a clone of the existing record")
	}
	if got == existing {
		t.Fatal("expected a copy, not the same pointer")
	}
}
