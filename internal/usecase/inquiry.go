package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"site-gateway/internal/domain"
	"site-gateway/internal/validation"
)

const defaultMaxQuery = 500

type ParamGetter interface {
	GetParameters(ctx context.Context, names ...string) (map[string]string, error)
}

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage, schema domain.ResponseSchema) (string, error)
	Moderate(ctx context.Context, input string) (bool, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// InquiryService forwards a visitor's query to the generative assistant
// through a fixed prompt template.
type InquiryService struct {
	params      ParamGetter
	llm         LLMClient
	validator   *validation.Validator
	paramPrefix string
	maxQueryLen int

	cacheMu     sync.RWMutex
	cacheLoaded bool
	model       string
	prompt      *template.Template
}

type InquiryOutput struct {
	Response string
}

func NewInquiryService(p ParamGetter, llm LLMClient, v *validation.Validator, paramPrefix string, maxQueryLen int) (*InquiryService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if v == nil {
		return nil, errors.New("usecase: validator must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if maxQueryLen <= 0 {
		maxQueryLen = defaultMaxQuery
	}
	return &InquiryService{
		params:      p,
		llm:         llm,
		validator:   v,
		paramPrefix: paramPrefix,
		maxQueryLen: maxQueryLen,
	}, nil
}

func (s *InquiryService) Respond(ctx context.Context, in domain.Inquiry) (InquiryOutput, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Query = strings.TrimSpace(in.Query)
	if err := s.validator.Struct(in); err != nil {
		return InquiryOutput{}, newError(ErrorInvalidInput, "invalid_inquiry", err)
	}
	if utf8.RuneCountInString(in.Query) > s.maxQueryLen {
		return InquiryOutput{}, newError(ErrorInvalidInput, "query_too_long", nil)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return InquiryOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	flagged, err := s.llm.Moderate(ctx, in.Query)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return InquiryOutput{}, newError(ErrorRateLimited, "moderation_rate_limited", err)
		}
		return InquiryOutput{}, newError(ErrorUpstream, "moderation_error", err)
	}
	if flagged {
		return InquiryOutput{}, newError(ErrorInvalidQuestion, "moderation_flagged", nil)
	}

	s.cacheMu.RLock()
	model, prompt := s.model, s.prompt
	s.cacheMu.RUnlock()

	messages, err := buildPromptMessages(prompt, in)
	if err != nil {
		return InquiryOutput{}, newError(ErrorInternal, "prompt_render_error", err)
	}

	raw, err := s.llm.Chat(ctx, model, messages, inquiryResponseSchema)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return InquiryOutput{}, newError(ErrorRateLimited, "openai_rate_limited", err)
		}
		return InquiryOutput{}, newError(ErrorUpstream, "openai_error", err)
	}

	out, err := parseInquiryResponse(raw)
	if err != nil {
		return InquiryOutput{}, newError(ErrorUpstream, "openai_malformed_response", err)
	}
	return InquiryOutput{Response: out.Response}, nil
}

// ensureConfig loads the model and prompt template once. A failed load is
// retried on the next request.
func (s *InquiryService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	modelName := s.paramPrefix + "/config/openai_model"
	templateName := s.paramPrefix + "/prompt_template"
	vals, err := s.params.GetParameters(ctx, modelName, templateName)
	if err != nil {
		return fmt.Errorf("usecase: load inquiry config: %w", err)
	}
	model := strings.TrimSpace(vals[modelName])
	if model == "" {
		return fmt.Errorf("usecase: parameter %q is empty", modelName)
	}
	prompt, err := parsePromptTemplate(vals[templateName])
	if err != nil {
		return err
	}

	s.model = model
	s.prompt = prompt
	s.cacheLoaded = true
	return nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
