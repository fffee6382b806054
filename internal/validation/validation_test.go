package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"site-gateway/internal/domain"
)

func expectIssues(t *testing.T, err error) *Error {
	t.Helper()
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.NotEmpty(t, verr.Issues)
	return verr
}

func TestDecode_ContactHappyPath(t *testing.T) {
	v := New()
	form, err := Decode[domain.ContactForm](v, []byte(`{"name":"Alice","email":"alice@example.com","message":"I would like to discuss a partnership."}`))
	require.NoError(t, err)
	require.Equal(t, "Alice", form.Name)
	require.Equal(t, "alice@example.com", form.Email)
}

func TestDecode_ContactShortName(t *testing.T) {
	_, err := Decode[domain.ContactForm](New(), []byte(`{"name":"A","email":"a@example.com","message":"long enough message"}`))
	verr := expectIssues(t, err)
	require.Equal(t, []Issue{{Field: "name", Message: "Name must be at least 2 characters."}}, verr.Issues)
}

func TestDecode_ContactInvalidEmail(t *testing.T) {
	for _, email := range []string{"", "alice", "alice.example.com", "@example.com"} {
		t.Run(email, func(t *testing.T) {
			_, err := Decode[domain.ContactForm](New(), []byte(`{"name":"Alice","email":"`+email+`","message":"long enough message"}`))
			verr := expectIssues(t, err)
			require.Equal(t, "Please enter a valid email address.", verr.Error())
			require.Equal(t, "email", verr.Issues[0].Field)
		})
	}
}

func TestDecode_ContactShortMessage(t *testing.T) {
	_, err := Decode[domain.ContactForm](New(), []byte(`{"name":"Al","email":"al@x.com","message":"Hi!"}`))
	verr := expectIssues(t, err)
	require.Equal(t, "Message must be at least 10 characters.", verr.Error())
}

func TestDecode_MinCountsCharactersNotBytes(t *testing.T) {
	_, err := Decode[domain.ContactForm](New(), []byte(`{"name":"Zoë","email":"z@x.com","message":"ééééé"}`))
	verr := expectIssues(t, err)
	require.Equal(t, "Message must be at least 10 characters.", verr.Error())
}

func TestDecode_JoinsMultipleIssuesInFieldOrder(t *testing.T) {
	_, err := Decode[domain.ContactForm](New(), []byte(`{"name":"","email":"nope","message":"short"}`))
	verr := expectIssues(t, err)
	require.Len(t, verr.Issues, 3)
	require.Equal(t,
		"Name must be at least 2 characters., Please enter a valid email address., Message must be at least 10 characters.",
		verr.Error(),
	)
}

func TestDecode_MissingFieldsUseConstraintMessages(t *testing.T) {
	for _, body := range []string{``, `{}`, `null`} {
		t.Run(body, func(t *testing.T) {
			_, err := Decode[domain.ProjectJoinForm](New(), []byte(body))
			verr := expectIssues(t, err)
			msg := verr.Error()
			require.Contains(t, msg, "Name must be at least 2 characters.")
			require.Contains(t, msg, "Project is required.")
			require.Contains(t, msg, "Skills must be at least 10 characters.")
			require.Contains(t, msg, "Motivation must be at least 20 characters.")
		})
	}
}

func TestDecode_WrongTypesAreInvalidData(t *testing.T) {
	for _, body := range []string{`{"name":42}`, `[1,2,3]`, `"text"`, `{"name":`} {
		_, err := Decode[domain.ContactForm](New(), []byte(body))
		verr := expectIssues(t, err)
		require.Equal(t, "Invalid form data.", verr.Error(), "body=%s", body)
	}
}

func TestDecode_ProposalAttachmentsOptional(t *testing.T) {
	form, err := Decode[domain.ProposalForm](New(), []byte(`{"name":"Bob","email":"bob@example.com","proposal":"A detailed proposal for a joint pilot."}`))
	require.NoError(t, err)
	require.Empty(t, form.Attachments)
}

func TestDecode_ProposalAttachmentIssuesUseNestedPath(t *testing.T) {
	_, err := Decode[domain.ProposalForm](New(), []byte(`{
		"name":"Bob","email":"bob@example.com","proposal":"A detailed proposal for a joint pilot.",
		"attachments":[{"name":"deck.pdf","size":1024},{"name":"","size":-1}]
	}`))
	verr := expectIssues(t, err)
	require.Equal(t, []Issue{
		{Field: "attachments[1].name", Message: "Attachment name is required."},
		{Field: "attachments[1].size", Message: "Attachment size is invalid."},
	}, verr.Issues)
}

func TestDecode_ShowcaseLabels(t *testing.T) {
	_, err := Decode[domain.ShowcaseForm](New(), []byte(`{
		"name":"Eve","email":"eve@example.com","projectName":"AI","modelUsed":"",
		"description":"Too short","impact":"Big"
	}`))
	verr := expectIssues(t, err)
	msg := verr.Error()
	require.True(t, strings.HasPrefix(msg, "Project name must be at least 3 characters."))
	require.Contains(t, msg, "Model used is required.")
	require.Contains(t, msg, "Description must be at least 20 characters.")
	require.Contains(t, msg, "Impact must be at least 10 characters.")
}

func TestDecode_ChatStartExperienceUnconstrained(t *testing.T) {
	form, err := Decode[domain.ChatStartForm](New(), []byte(`{"name":"Ann","email":"ann@example.com"}`))
	require.NoError(t, err)
	require.Empty(t, form.Experience)
}

func TestStruct_NonStructIsNotAnIssueList(t *testing.T) {
	err := New().Struct(42)
	require.Error(t, err)
	var verr *Error
	require.False(t, errors.As(err, &verr))
}

func TestError_NilSafe(t *testing.T) {
	var e *Error
	require.Equal(t, "", e.Error())
}
