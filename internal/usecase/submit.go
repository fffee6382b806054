package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"site-gateway/internal/domain"
	"site-gateway/internal/metrics"
	"site-gateway/internal/validation"
)

const (
	msgContactSent      = "Your message has been sent successfully!"
	msgChatStarted      = "Your chat session has started!"
	msgProposalSent     = "Your proposal has been submitted successfully!"
	msgJoinRequested    = "Your request to join the project has been submitted!"
	msgShowcaseReceived = "Your project has been submitted for review!"
)

// Recorder receives accepted submissions. Failures never change the result
// returned to the visitor.
type Recorder interface {
	RecordSubmission(ctx context.Context, sub domain.Submission) error
}

// SubmitResult is returned for every form submission, accepted or not.
type SubmitResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    any                `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
	Issues  []validation.Issue `json:"issues,omitempty"`
}

type SubmissionService struct {
	validator *validation.Validator
	recorder  Recorder
	delay     Delay
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type SubmissionOption func(*SubmissionService)

func WithRecorder(r Recorder) SubmissionOption {
	return func(s *SubmissionService) {
		s.recorder = r
	}
}

func WithSubmitDelay(d Delay) SubmissionOption {
	return func(s *SubmissionService) {
		s.delay = d
	}
}

func WithSubmissionMetrics(m *metrics.Metrics) SubmissionOption {
	return func(s *SubmissionService) {
		s.metrics = m
	}
}

func WithSubmissionLogger(l *slog.Logger) SubmissionOption {
	return func(s *SubmissionService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSubmissionService(v *validation.Validator, opts ...SubmissionOption) (*SubmissionService, error) {
	if v == nil {
		return nil, errors.New("usecase: validator must not be nil")
	}
	s := &SubmissionService{
		validator: v,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SubmissionService) SubmitContact(ctx context.Context, raw []byte) (SubmitResult, error) {
	return submit[domain.ContactForm](ctx, s, domain.FormContact, raw, msgContactSent)
}

func (s *SubmissionService) StartChat(ctx context.Context, raw []byte) (SubmitResult, error) {
	return submit[domain.ChatStartForm](ctx, s, domain.FormChatStart, raw, msgChatStarted)
}

func (s *SubmissionService) SubmitProposal(ctx context.Context, raw []byte) (SubmitResult, error) {
	return submit[domain.ProposalForm](ctx, s, domain.FormProposal, raw, msgProposalSent)
}

func (s *SubmissionService) JoinProject(ctx context.Context, raw []byte) (SubmitResult, error) {
	return submit[domain.ProjectJoinForm](ctx, s, domain.FormProjectJoin, raw, msgJoinRequested)
}

func (s *SubmissionService) SubmitShowcase(ctx context.Context, raw []byte) (SubmitResult, error) {
	return submit[domain.ShowcaseForm](ctx, s, domain.FormShowcase, raw, msgShowcaseReceived)
}

func submit[T domain.Contact](ctx context.Context, s *SubmissionService, kind domain.FormKind, raw []byte, okMsg string) (SubmitResult, error) {
	form, err := validation.Decode[T](s.validator, raw)
	if err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return SubmitResult{}, newError(ErrorInternal, "validator_error", err)
		}
		s.metrics.Submission(string(kind), metrics.OutcomeRejected)
		s.logger.InfoContext(ctx, "submission rejected", "form", kind, "issues", len(verr.Issues))
		return SubmitResult{Success: false, Error: verr.Error(), Issues: verr.Issues}, nil
	}

	payload, err := json.Marshal(form)
	if err != nil {
		return SubmitResult{}, newError(ErrorInternal, "payload_encode_error", err)
	}
	name, email := form.Sender()
	sub := domain.Submission{
		ID:         newUUID(),
		Kind:       kind,
		Name:       name,
		Email:      email,
		Payload:    payload,
		ReceivedAt: s.now().UTC(),
	}
	s.logger.InfoContext(ctx, "submission accepted", "form", kind, "submission_id", sub.ID)

	if s.recorder != nil {
		if err := s.recorder.RecordSubmission(ctx, sub); err != nil {
			s.logger.WarnContext(ctx, "submission not recorded", "form", kind, "submission_id", sub.ID, "err", err)
		}
	}

	if err := s.delay.Wait(ctx); err != nil {
		return SubmitResult{}, newError(ErrorInternal, "submission_interrupted", err)
	}
	s.metrics.Submission(string(kind), metrics.OutcomeAccepted)

	return SubmitResult{Success: true, Message: okMsg, Data: form}, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
