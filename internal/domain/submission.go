package domain

import (
	"encoding/json"
	"time"
)

// FormKind names one of the site's submission entry points.
type FormKind string

const (
	FormContact     FormKind = "contact"
	FormChatStart   FormKind = "chat_start"
	FormProposal    FormKind = "proposal"
	FormProjectJoin FormKind = "project_join"
	FormShowcase    FormKind = "showcase"
)

// Contact is implemented by every form so accepted submissions can be
// attributed to a sender.
type Contact interface {
	Sender() (name, email string)
}

type ContactForm struct {
	Name    string `json:"name" label:"Name" validate:"min=2"`
	Email   string `json:"email" label:"Email" validate:"email"`
	Message string `json:"message" label:"Message" validate:"min=10"`
}

func (f ContactForm) Sender() (string, string) { return f.Name, f.Email }

type ChatStartForm struct {
	Name       string `json:"name" label:"Name" validate:"min=2"`
	Email      string `json:"email" label:"Email" validate:"email"`
	Experience string `json:"experience" label:"Experience"`
}

func (f ChatStartForm) Sender() (string, string) { return f.Name, f.Email }

// Attachment describes a file the visitor attached to a proposal. Only the
// metadata travels through the gateway.
type Attachment struct {
	Name        string `json:"name" label:"Attachment name" validate:"required"`
	Size        int64  `json:"size" label:"Attachment size" validate:"gte=0"`
	ContentType string `json:"contentType,omitempty" label:"Attachment type"`
}

type ProposalForm struct {
	Name        string       `json:"name" label:"Name" validate:"min=2"`
	Email       string       `json:"email" label:"Email" validate:"email"`
	Proposal    string       `json:"proposal" label:"Proposal" validate:"min=20"`
	Attachments []Attachment `json:"attachments,omitempty" label:"Attachments" validate:"omitempty,dive"`
}

func (f ProposalForm) Sender() (string, string) { return f.Name, f.Email }

type ProjectJoinForm struct {
	Name       string `json:"name" label:"Name" validate:"min=2"`
	Email      string `json:"email" label:"Email" validate:"email"`
	Project    string `json:"project" label:"Project" validate:"required"`
	Skills     string `json:"skills" label:"Skills" validate:"min=10"`
	Motivation string `json:"motivation" label:"Motivation" validate:"min=20"`
}

func (f ProjectJoinForm) Sender() (string, string) { return f.Name, f.Email }

type ShowcaseForm struct {
	Name        string `json:"name" label:"Name" validate:"min=2"`
	Email       string `json:"email" label:"Email" validate:"email"`
	ProjectName string `json:"projectName" label:"Project name" validate:"min=3"`
	ModelUsed   string `json:"modelUsed" label:"Model used" validate:"required"`
	Description string `json:"description" label:"Description" validate:"min=20"`
	Impact      string `json:"impact" label:"Impact" validate:"min=10"`
}

func (f ShowcaseForm) Sender() (string, string) { return f.Name, f.Email }

// Submission is an accepted form handed to the submission recorder.
type Submission struct {
	ID         string
	Kind       FormKind
	Name       string
	Email      string
	Payload    json.RawMessage
	ReceivedAt time.Time
}
