package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"site-gateway/internal/domain"
)

var inquiryResponseSchema = domain.ResponseSchema{
	Name: "inquiry_response",
	Schema: json.RawMessage(`{
		"type":"object",
		"additionalProperties":false,
		"properties":{
			"response":{"type":"string"}
		},
		"required":["response"]
	}`),
}

type inquiryResponse struct {
	Response string `json:"response"`
}

// promptData is the value the inquiry template is executed against.
type promptData struct {
	Name            string
	Email           string
	ExperienceLevel string
	Query           string
}

func parsePromptTemplate(text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("usecase: prompt template is empty")
	}
	tmpl, err := template.New("inquiry").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("usecase: parse prompt template: %w", err)
	}
	return tmpl, nil
}

func buildPromptMessages(tmpl *template.Template, in domain.Inquiry) ([]domain.ChatMessage, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Name:            normalizePromptInput(in.Name),
		Email:           strings.TrimSpace(in.Email),
		ExperienceLevel: normalizePromptInput(in.ExperienceLevel),
		Query:           normalizePromptInput(in.Query),
	})
	if err != nil {
		return nil, fmt.Errorf("usecase: render prompt: %w", err)
	}
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildPolicyPrompt()},
		{Role: domain.RoleUser, Content: buf.String()},
	}, nil
}

func buildPolicyPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are the assistant on the company's website, speaking on behalf of the team.",
		"",
		"Behavior Rules:",
		behaviorRules(),
		"",
		"Output Contract:",
		"Return JSON only with the key response (string) holding the final visitor-facing answer.",
	}, "\n")
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Answer only the visitor's current query.",
		"2) Match the depth of the answer to the visitor's stated experience level.",
		"3) Keep responses friendly, professional and concise.",
		"4) Never invent pricing, customers or commitments; point to the contact form instead.",
	}, "\n")
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

func parseInquiryResponse(raw string) (inquiryResponse, error) {
	var out inquiryResponse
	dec := json.NewDecoder(bytes.NewBufferString(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return inquiryResponse{}, fmt.Errorf("usecase: decode inquiry response: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return inquiryResponse{}, errors.New("usecase: decode inquiry response: multiple JSON values")
		}
		return inquiryResponse{}, fmt.Errorf("usecase: decode inquiry response trailing data: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return inquiryResponse{}, errors.New("usecase: inquiry response is empty")
	}
	return out, nil
}
