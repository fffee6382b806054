package domain

// Inquiry is the input contract of the generative assistant prompt.
type Inquiry struct {
	Name            string `json:"name" label:"Name"`
	Email           string `json:"email" label:"Email" validate:"email"`
	ExperienceLevel string `json:"experienceLevel" label:"Experience level"`
	Query           string `json:"query" label:"Query" validate:"required"`
}
