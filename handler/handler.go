package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"site-gateway/internal/domain"
	"site-gateway/internal/usecase"
	"site-gateway/internal/validation"
)

const correlationHeader = "X-Correlation-Id"

// Submitter accepts the site's forms.
type Submitter interface {
	SubmitContact(ctx context.Context, raw []byte) (usecase.SubmitResult, error)
	StartChat(ctx context.Context, raw []byte) (usecase.SubmitResult, error)
	SubmitProposal(ctx context.Context, raw []byte) (usecase.SubmitResult, error)
	JoinProject(ctx context.Context, raw []byte) (usecase.SubmitResult, error)
	SubmitShowcase(ctx context.Context, raw []byte) (usecase.SubmitResult, error)
}

type Chatter interface {
	Continue(ctx context.Context, in usecase.ContinueInput) (usecase.ContinueOutput, error)
}

type Inquirer interface {
	Respond(ctx context.Context, in domain.Inquiry) (usecase.InquiryOutput, error)
}

type chatRequest struct {
	History []domain.ChatMessage `json:"history"`
	Message domain.ChatMessage   `json:"message"`
}

type chatResponse struct {
	Success  bool                `json:"success"`
	Response domain.ChatMessage  `json:"response"`
	History  domain.Conversation `json:"history"`
}

type inquiryResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// endpoint serves one path. It returns the status and the value to encode
// as the response body.
type endpoint struct {
	method string
	serve  func(ctx context.Context, body []byte) (int, any)
}

type Handler struct {
	chatter   Chatter
	inquirer  Inquirer
	logger    *slog.Logger
	endpoints map[string]endpoint
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler wires the services behind their routes. inq may be nil, in
// which case /inquiry answers 503.
func NewHandler(sub Submitter, chat Chatter, inq Inquirer, opts ...Option) (*Handler, error) {
	if sub == nil {
		return nil, errors.New("handler: submitter must not be nil")
	}
	if chat == nil {
		return nil, errors.New("handler: chatter must not be nil")
	}
	h := &Handler{
		chatter:   chat,
		inquirer:  inq,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.endpoints = map[string]endpoint{
		"/health":        {http.MethodGet, h.health},
		"/contact":       {http.MethodPost, h.form(sub.SubmitContact)},
		"/chat/start":    {http.MethodPost, h.form(sub.StartChat)},
		"/chat/messages": {http.MethodPost, h.chat},
		"/proposals":     {http.MethodPost, h.form(sub.SubmitProposal)},
		"/projects/join": {http.MethodPost, h.form(sub.JoinProject)},
		"/showcase":      {http.MethodPost, h.form(sub.SubmitShowcase)},
		"/inquiry":       {http.MethodPost, h.inquiry},
	}
	return h, nil
}

// Paths lists the routed paths in sorted order.
func (h *Handler) Paths() []string {
	paths := make([]string, 0, len(h.endpoints))
	for p := range h.endpoints {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(req.Headers)
	logger := h.logger.With("correlationId", correlationID, "method", req.HTTPMethod, "path", req.Path)

	ep, ok := h.endpoints[normalizePath(req.Path)]
	if !ok {
		return respond(correlationID, http.StatusNotFound, errorResponse{Error: "NOT_FOUND"}), nil
	}
	if !strings.EqualFold(req.HTTPMethod, ep.method) {
		resp := respond(correlationID, http.StatusMethodNotAllowed, errorResponse{Error: "METHOD_NOT_ALLOWED"})
		resp.Headers["Allow"] = ep.method
		return resp, nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Warn("request body is not valid base64", "err", err)
			return respond(correlationID, http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}), nil
		}
		body = decoded
	}

	status, out := ep.serve(ctx, body)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status)
	} else {
		logger.Info("request served", "status", status)
	}
	return respond(correlationID, status, out), nil
}

func (h *Handler) health(context.Context, []byte) (int, any) {
	return http.StatusOK, map[string]string{"status": "ok"}
}

func (h *Handler) form(submit func(context.Context, []byte) (usecase.SubmitResult, error)) func(context.Context, []byte) (int, any) {
	return func(ctx context.Context, body []byte) (int, any) {
		res, err := submit(ctx, body)
		if err != nil {
			return h.failure(err)
		}
		if !res.Success {
			return http.StatusUnprocessableEntity, res
		}
		return http.StatusOK, res
	}
}

func (h *Handler) chat(ctx context.Context, body []byte) (int, any) {
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}
	}
	out, err := h.chatter.Continue(ctx, usecase.ContinueInput{History: req.History, Message: req.Message})
	if err != nil {
		return h.failure(err)
	}
	return http.StatusOK, chatResponse{Success: out.Success, Response: out.Response, History: out.History}
}

func (h *Handler) inquiry(ctx context.Context, body []byte) (int, any) {
	if h.inquirer == nil {
		return http.StatusServiceUnavailable, errorResponse{Error: string(usecase.ErrorUnavailable)}
	}
	var in domain.Inquiry
	if err := json.Unmarshal(body, &in); err != nil {
		return http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)}
	}
	out, err := h.inquirer.Respond(ctx, in)
	if err != nil {
		return h.failure(err)
	}
	return http.StatusOK, inquiryResponse{Response: out.Response}
}

func (h *Handler) failure(err error) (int, any) {
	usecaseErr := usecase.AsError(err)
	log := h.logger.Warn
	if usecaseErr.Code == usecase.ErrorInternal || usecaseErr.Retryable() {
		log = h.logger.Error
	}
	log("usecase error", "code", usecaseErr.Code, "reason", usecaseErr.Reason, "err", usecaseErr.Err)

	out := errorResponse{Error: string(usecaseErr.Code)}
	var verr *validation.Error
	if errors.As(err, &verr) {
		out.Message = verr.Error()
	}
	return statusFor(usecaseErr.Code), out
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput, usecase.ErrorInvalidQuestion:
		return http.StatusBadRequest
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	case usecase.ErrorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respond(correlationID string, status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(raw),
	}
}

func correlationIDFrom(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}

func normalizePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
