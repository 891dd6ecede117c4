// Package ai layers an LLM threat analysis over the dashboard snapshot.
// The upstream is any OpenAI-style chat-completions endpoint; when no key is
// configured or the call fails, a static analysis is computed locally so the
// endpoint never fails.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coastalguard/coastal-monitor/internal/models"
	"github.com/coastalguard/coastal-monitor/internal/observability"
)

// Analysis sources.
const (
	SourceLLM    = "llm"
	SourceStatic = "static"
)

const systemPrompt = "You are a coastal weather threat analyst for the Gujarat coast. " +
	"Given current per-city conditions, summarize the overall threat picture in two or three " +
	"sentences and list short advisories for cities at yellow or red. Be factual and concise."

// Analyzer produces threat analyses. apiKey may be empty, in which case every
// call returns the static fallback.
type Analyzer struct {
	apiKey  string
	apiURL  string
	model   string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewAnalyzer creates an Analyzer. apiURL should point at a chat-completions
// endpoint (e.g. https://api.openai.com/v1/chat/completions).
func NewAnalyzer(apiKey, apiURL, model string, timeout time.Duration, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		apiKey:  apiKey,
		apiURL:  apiURL,
		model:   model,
		timeout: timeout,
		logger:  logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze returns a threat analysis for the snapshot. LLM failures are
// swallowed: the static fallback is returned instead, never an error.
func (a *Analyzer) Analyze(ctx context.Context, snapshot []models.CityWeather) models.ThreatAnalysis {
	if a.apiKey == "" {
		observability.AIAnalysisTotal.WithLabelValues(SourceStatic).Inc()
		return a.staticAnalysis(snapshot)
	}

	summary, err := a.callLLM(ctx, snapshot)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("llm analysis failed, using static fallback", zap.Error(err))
		}
		observability.AIAnalysisTotal.WithLabelValues(SourceStatic).Inc()
		return a.staticAnalysis(snapshot)
	}

	observability.AIAnalysisTotal.WithLabelValues(SourceLLM).Inc()
	return models.ThreatAnalysis{
		Summary:     summary,
		Advisories:  advisories(snapshot),
		Source:      SourceLLM,
		Model:       a.model,
		GeneratedAt: time.Now().UTC(),
	}
}

func (a *Analyzer) callLLM(ctx context.Context, snapshot []models.CityWeather) (string, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: conditionsPrompt(snapshot)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		observability.AIRequestDuration.Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()
	observability.AIRequestDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("llm returned no content")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// conditionsPrompt renders the snapshot as one compact line per city.
func conditionsPrompt(snapshot []models.CityWeather) string {
	var b strings.Builder
	b.WriteString("Current coastal conditions:\n")
	for _, r := range snapshot {
		fmt.Fprintf(&b, "- %s: %.1fC, wind %.1f km/h %s, pressure %.1f hPa, sea %s, threat %s\n",
			r.City, r.Temperature, r.WindSpeed, r.WindDirection, r.Pressure, r.SeaState, r.ThreatLevel)
	}
	return b.String()
}

// staticAnalysis derives a canned summary from threat-level counts. Used when
// the LLM is unavailable so the endpoint keeps its contract.
func (a *Analyzer) staticAnalysis(snapshot []models.CityWeather) models.ThreatAnalysis {
	var red, yellow []string
	for _, r := range snapshot {
		switch r.ThreatLevel {
		case models.ThreatRed:
			red = append(red, r.City)
		case models.ThreatYellow:
			yellow = append(yellow, r.City)
		}
	}

	var summary string
	switch {
	case len(red) > 0:
		summary = fmt.Sprintf("Severe coastal conditions: %s at red alert. Fishing and small-craft operations should be suspended in affected areas.", strings.Join(red, ", "))
	case len(yellow) > 0:
		summary = fmt.Sprintf("Elevated coastal conditions: %s at yellow alert. Monitor conditions before venturing out to sea.", strings.Join(yellow, ", "))
	default:
		summary = "Coastal conditions are normal across all monitored cities. No threats detected."
	}

	return models.ThreatAnalysis{
		Summary:     summary,
		Advisories:  advisories(snapshot),
		Source:      SourceStatic,
		GeneratedAt: time.Now().UTC(),
	}
}

// advisories lists one short line per city above green.
func advisories(snapshot []models.CityWeather) []string {
	out := make([]string, 0)
	for _, r := range snapshot {
		switch r.ThreatLevel {
		case models.ThreatRed:
			out = append(out, fmt.Sprintf("%s: red alert, %s seas, wind %.0f km/h; avoid coastal activity", r.City, r.SeaState, r.WindSpeed))
		case models.ThreatYellow:
			out = append(out, fmt.Sprintf("%s: yellow alert, %s seas; exercise caution", r.City, r.SeaState))
		}
	}
	return out
}
