package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"site-gateway/internal/domain"
	"site-gateway/internal/integrations/openai"
	"site-gateway/internal/validation"
)

const testTemplate = "Visitor {{.Name}} <{{.Email}}> ({{.ExperienceLevel}}) asks: {{.Query}}"

type mockParams struct {
	vals  map[string]string
	err   error
	calls int
}

func (m *mockParams) GetParameters(_ context.Context, names ...string) (map[string]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := m.vals[name]
		if !ok {
			return nil, fmt.Errorf("param not found: %s", name)
		}
		out[name] = v
	}
	return out, nil
}

type transientParams struct {
	*mockParams
	failOnce bool
}

func (p *transientParams) GetParameters(ctx context.Context, names ...string) (map[string]string, error) {
	if p.failOnce {
		p.failOnce = false
		return nil, errors.New("temporary ssm failure")
	}
	return p.mockParams.GetParameters(ctx, names...)
}

type chatResponse struct {
	answer string
	err    error
}

type mockLLM struct {
	responses []chatResponse
	callCount int
	flagged   bool
	err       error
	model     string
	messages  []domain.ChatMessage
	schema    domain.ResponseSchema
}

func (m *mockLLM) Chat(_ context.Context, model string, msgs []domain.ChatMessage, schema domain.ResponseSchema) (string, error) {
	m.model = model
	m.messages = msgs
	m.schema = schema
	if len(m.responses) == 0 {
		return "", errors.New("no llm response configured")
	}
	idx := m.callCount
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.callCount++
	return m.responses[idx].answer, m.responses[idx].err
}

func (m *mockLLM) Moderate(_ context.Context, _ string) (bool, error) {
	return m.flagged, m.err
}

func defaultParams() *mockParams {
	return &mockParams{
		vals: map[string]string{
			"/prefix/config/openai_model": "gpt-4o-mini",
			"/prefix/prompt_template":     testTemplate,
		},
	}
}

func inquiryJSON(response string) string {
	return fmt.Sprintf(`{"response":%q}`, response)
}

func answering(response string) *mockLLM {
	return &mockLLM{responses: []chatResponse{{answer: inquiryJSON(response)}}}
}

func validInquiry() domain.Inquiry {
	return domain.Inquiry{
		Name:            "Alice",
		Email:           "alice@example.com",
		ExperienceLevel: "beginner",
		Query:           "How do agents plan tasks?",
	}
}

func newTestInquiryService(t *testing.T, p ParamGetter, llm LLMClient) *InquiryService {
	t.Helper()
	svc, err := NewInquiryService(p, llm, validation.New(), "/prefix", 300)
	require.NoError(t, err)
	return svc
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewInquiryService_ValidatesDependencies(t *testing.T) {
	v := validation.New()
	_, err := NewInquiryService(nil, answering("x"), v, "/prefix", 300)
	require.Error(t, err)

	_, err = NewInquiryService(defaultParams(), nil, v, "/prefix", 300)
	require.Error(t, err)

	_, err = NewInquiryService(defaultParams(), answering("x"), nil, "/prefix", 300)
	require.Error(t, err)

	_, err = NewInquiryService(defaultParams(), answering("x"), v, " ", 300)
	require.Error(t, err)
}

func TestRespond_HappyPath(t *testing.T) {
	llm := answering("Agents break goals into steps.")
	svc := newTestInquiryService(t, defaultParams(), llm)

	out, err := svc.Respond(context.Background(), validInquiry())
	require.NoError(t, err)
	require.Equal(t, "Agents break goals into steps.", out.Response)
	require.Equal(t, "gpt-4o-mini", llm.model)
	require.Equal(t, "inquiry_response", llm.schema.Name)
	require.Len(t, llm.messages, 2)
	require.Equal(t, domain.RoleSystem, llm.messages[0].Role)
	require.Equal(t, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: "Visitor Alice <alice@example.com> (beginner) asks: How do agents plan tasks?",
	}, llm.messages[1])
}

func TestRespond_ValidationErrors(t *testing.T) {
	svc := newTestInquiryService(t, defaultParams(), answering("x"))

	in := validInquiry()
	in.Email = "not-an-email"
	_, err := svc.Respond(context.Background(), in)
	expectError(t, err, ErrorInvalidInput, "invalid_inquiry")
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Please enter a valid email address.", verr.Error())

	in = validInquiry()
	in.Query = "   "
	_, err = svc.Respond(context.Background(), in)
	expectError(t, err, ErrorInvalidInput, "invalid_inquiry")

	in = validInquiry()
	in.Query = strings.Repeat("a", 301)
	_, err = svc.Respond(context.Background(), in)
	expectError(t, err, ErrorInvalidInput, "query_too_long")
}

func TestRespond_MalformedResponse(t *testing.T) {
	svc := newTestInquiryService(t, defaultParams(), &mockLLM{responses: []chatResponse{{answer: "not-json"}}})
	_, err := svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorUpstream, "openai_malformed_response")
}

func TestRespond_ModerationErrors(t *testing.T) {
	svc := newTestInquiryService(t, defaultParams(), &mockLLM{flagged: true})
	_, err := svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInvalidQuestion, "moderation_flagged")

	svc = newTestInquiryService(t, defaultParams(), &mockLLM{err: &openai.HTTPStatusError{StatusCode: http.StatusInternalServerError}})
	_, err = svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorUpstream, "moderation_error")

	svc = newTestInquiryService(t, defaultParams(), &mockLLM{err: &openai.HTTPStatusError{StatusCode: http.StatusTooManyRequests}})
	_, err = svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorRateLimited, "moderation_rate_limited")
}

func TestRespond_SSMLoadErrors(t *testing.T) {
	svc := newTestInquiryService(t, &mockParams{err: errors.New("ssm unavailable")}, answering("x"))
	_, err := svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInternal, "ssm_load_error")

	p := defaultParams()
	delete(p.vals, "/prefix/prompt_template")
	svc = newTestInquiryService(t, p, answering("x"))
	_, err = svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInternal, "ssm_load_error")

	p = defaultParams()
	p.vals["/prefix/config/openai_model"] = " "
	svc = newTestInquiryService(t, p, answering("x"))
	_, err = svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInternal, "ssm_load_error")

	p = defaultParams()
	p.vals["/prefix/prompt_template"] = "{{.Query"
	svc = newTestInquiryService(t, p, answering("x"))
	_, err = svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInternal, "ssm_load_error")
}

func TestRespond_SSMLoadError_IsRetriedOnNextRequest(t *testing.T) {
	p := &transientParams{mockParams: defaultParams(), failOnce: true}
	svc := newTestInquiryService(t, p, answering("ok"))

	_, err := svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInternal, "ssm_load_error")

	out, err := svc.Respond(context.Background(), validInquiry())
	require.NoError(t, err)
	require.Equal(t, "ok", out.Response)
}

func TestRespond_ConfigLoadedOnce(t *testing.T) {
	p := defaultParams()
	svc := newTestInquiryService(t, p, answering("ok"))
	for i := 0; i < 3; i++ {
		_, err := svc.Respond(context.Background(), validInquiry())
		require.NoError(t, err)
	}
	require.Equal(t, 1, p.calls)
}

func TestRespond_TemplateReferencingUnknownFieldFailsRender(t *testing.T) {
	p := defaultParams()
	p.vals["/prefix/prompt_template"] = "{{.Budget}}"
	svc := newTestInquiryService(t, p, answering("x"))
	_, err := svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorInternal, "prompt_render_error")
}

func TestRespond_OpenAIErrors(t *testing.T) {
	svc := newTestInquiryService(t, defaultParams(), &mockLLM{responses: []chatResponse{{err: &openai.HTTPStatusError{StatusCode: http.StatusTooManyRequests}}}})
	_, err := svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorRateLimited, "openai_rate_limited")

	svc = newTestInquiryService(t, defaultParams(), &mockLLM{responses: []chatResponse{{err: &openai.HTTPStatusError{StatusCode: http.StatusInternalServerError}}}})
	_, err = svc.Respond(context.Background(), validInquiry())
	expectError(t, err, ErrorUpstream, "openai_error")
}

func TestBuildPromptMessages_NormalizesWhitespace(t *testing.T) {
	tmpl, err := parsePromptTemplate(testTemplate)
	require.NoError(t, err)
	msgs, err := buildPromptMessages(tmpl, domain.Inquiry{
		Name:            "  Alice   Smith ",
		Email:           " alice@example.com ",
		ExperienceLevel: "expert",
		Query:           "What\n\nis   RAG?",
	})
	require.NoError(t, err)
	require.Equal(t, "Visitor Alice Smith <alice@example.com> (expert) asks: What is RAG?", msgs[1].Content)
}

func TestBuildPolicyPrompt_IncludesRules(t *testing.T) {
	content := buildPolicyPrompt()
	require.Contains(t, content, "Role:")
	require.Contains(t, content, "Behavior Rules:")
	require.Contains(t, content, "experience level")
	require.Contains(t, content, "Output Contract:")
	require.Contains(t, content, "key response")
}

func TestParsePromptTemplate_Empty(t *testing.T) {
	_, err := parsePromptTemplate("  ")
	require.Error(t, err)
}

func TestParseInquiryResponse(t *testing.T) {
	out, err := parseInquiryResponse(`{"response":"hello"}`)
	require.NoError(t, err)
	require.Equal(t, "hello", out.Response)

	_, err = parseInquiryResponse(`{"response":""}`)
	require.Error(t, err)

	_, err = parseInquiryResponse(`not-json`)
	require.Error(t, err)

	_, err = parseInquiryResponse(`{"response":"wrapped","extra":true}`)
	require.Error(t, err)

	_, err = parseInquiryResponse(`{"response":"a"}{"response":"b"}`)
	require.Error(t, err)
}
