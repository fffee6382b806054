package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"site-gateway/internal/domain"
	"site-gateway/internal/metrics"
	"site-gateway/internal/router"
)

const defaultMaxMessage = 1000

type ContinueInput struct {
	History []domain.ChatMessage
	Message domain.ChatMessage
}

// ContinueOutput carries the assistant reply and the visitor's updated
// transcript. The input history is never modified.
type ContinueOutput struct {
	Success  bool
	Response domain.ChatMessage
	History  domain.Conversation
}

// ChatService runs one simulated assistant turn per call.
type ChatService struct {
	router        *router.Router
	delay         Delay
	maxMessageLen int
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

type ChatOption func(*ChatService)

func WithThinkingDelay(d Delay) ChatOption {
	return func(s *ChatService) {
		s.delay = d
	}
}

func WithChatMetrics(m *metrics.Metrics) ChatOption {
	return func(s *ChatService) {
		s.metrics = m
	}
}

func WithChatLogger(l *slog.Logger) ChatOption {
	return func(s *ChatService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewChatService(r *router.Router, maxMessageLen int, opts ...ChatOption) (*ChatService, error) {
	if r == nil {
		return nil, errors.New("usecase: router must not be nil")
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessage
	}
	s := &ChatService{
		router:        r,
		maxMessageLen: maxMessageLen,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ChatService) Continue(ctx context.Context, in ContinueInput) (ContinueOutput, error) {
	msg := in.Message
	if msg.Role == "" {
		msg.Role = domain.RoleUser
	}
	if msg.Role != domain.RoleUser {
		return ContinueOutput{}, newError(ErrorInvalidInput, "invalid_message_role", nil)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return ContinueOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(msg.Content) > s.maxMessageLen {
		return ContinueOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	for _, h := range in.History {
		if !domain.IsConversational(h.Role) {
			return ContinueOutput{}, newError(ErrorInvalidInput, "invalid_history_role", nil)
		}
	}

	history := domain.Conversation(in.History).Append(msg)

	if err := s.delay.Wait(ctx); err != nil {
		s.logger.WarnContext(ctx, "chat turn interrupted", "err", err)
		apology := s.router.Apology()
		return ContinueOutput{
			Success:  false,
			Response: apology,
			History:  history.Append(apology),
		}, nil
	}

	match := s.router.Match(in.History, msg)
	s.metrics.ChatReply(match.Route)
	s.logger.DebugContext(ctx, "chat reply selected", "route", match.Route, "turns", len(history))

	reply := domain.ChatMessage{Role: domain.RoleAssistant, Content: match.Reply}
	return ContinueOutput{
		Success:  true,
		Response: reply,
		History:  history.Append(reply),
	}, nil
}
