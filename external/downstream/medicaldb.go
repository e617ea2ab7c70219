package downstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/relaylabs/relay/internal/downstream"
)

type MedicalDBConfig struct {
	BaseURL string
}

// MedicalDBClient queries the shared medical history database over HTTP.
// Without an endpoint it runs as a stub.
type MedicalDBClient struct {
	http       *resty.Client
	configured bool
}

func NewMedicalDBClient(cfg MedicalDBConfig) downstream.MedicalHistorySource {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &MedicalDBClient{
		http:       client,
		configured: baseURL != "",
	}
}

type historyResponse struct {
	Summary string `json:"summary"`
}

func (c *MedicalDBClient) QueryHistory(ctx context.Context, patient downstream.Identity) (string, error) {
	if !c.configured {
		detail := fmt.Sprintf("[MEDICAL DB STUB] Would query medical history for %s (age %s, %s). No endpoint configured.",
			patient.FullName, patient.Age, patient.Gender)
		return detail, downstream.ErrNotConfigured
	}

	var result historyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"first_name": patient.FirstName,
			"last_name":  patient.LastName,
			"age":        patient.Age,
			"gender":     patient.Gender,
			"address":    patient.Address,
		}).
		SetResult(&result).
		Get("/api/history")
	if err != nil {
		return "", fmt.Errorf("medical history query: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("medical history query: status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Summary == "" {
		return fmt.Sprintf("No medical history on file for %s.", patient.FullName), nil
	}
	return result.Summary, nil
}
