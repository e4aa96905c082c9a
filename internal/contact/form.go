// Package contact holds the contact form record, its validation rules, and the
// submission pipeline that delivers a valid form.
package contact

import (
	"strings"

	"github.com/lprior-repo/sitekit/internal/validation"
)

// MinMessageLength is the shortest accepted message, counted after trimming.
const MinMessageLength = 10

// Field identifies one input of the contact form.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldMessage Field = "message"
)

// Labels used in validation messages.
const (
	labelName    = "Name"
	labelEmail   = "Email"
	labelMessage = "Message"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldName, FieldEmail, FieldMessage}

// ParseField maps a form input name to a Field.
func ParseField(name string) (Field, bool) {
	switch Field(strings.ToLower(strings.TrimSpace(name))) {
	case FieldName:
		return FieldName, true
	case FieldEmail:
		return FieldEmail, true
	case FieldMessage:
		return FieldMessage, true
	}
	return "", false
}

// Label returns the human readable name used in error messages.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return labelName
	case FieldEmail:
		return labelEmail
	case FieldMessage:
		return labelMessage
	}
	return string(f)
}

// Form is the contact form record. It is a value type; updates return a new Form.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// EmptyForm returns a form with every field set to the empty string.
func EmptyForm() Form {
	return Form{}
}

// Get returns the current value of field.
func (f Form) Get(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldMessage:
		return f.Message
	}
	return ""
}

// UpdateField returns a copy of form with field replaced by value. Unknown fields
// leave the form unchanged.
func UpdateField(form Form, field Field, value string) Form {
	switch field {
	case FieldName:
		form.Name = value
	case FieldEmail:
		form.Email = value
	case FieldMessage:
		form.Message = value
	}
	return form
}

// Sanitize returns a copy of form with every field trimmed.
func Sanitize(form Form) Form {
	return Form{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Message: strings.TrimSpace(form.Message),
	}
}

// Validate runs the contact rules in a fixed order: name, email, message. Format and
// length checks only run once the field is present, so each field reports at most
// one message. Checks see trimmed values.
func Validate(form Form) validation.Result {
	clean := Sanitize(form)

	name := validation.Required(clean.Name, labelName)

	email := validation.Required(clean.Email, labelEmail)
	if email.IsValid {
		email = validation.Email(clean.Email, labelEmail)
	}

	message := validation.Required(clean.Message, labelMessage)
	if message.IsValid {
		message = validation.MinLength(clean.Message, labelMessage, MinMessageLength)
	}

	return validation.Combine(name, email, message)
}

// IsComplete reports whether every field holds non-blank text.
func IsComplete(form Form) bool {
	return strings.TrimSpace(form.Name) != "" &&
		strings.TrimSpace(form.Email) != "" &&
		strings.TrimSpace(form.Message) != ""
}

// HasData reports whether any field holds non-blank text.
func HasData(form Form) bool {
	return strings.TrimSpace(form.Name) != "" ||
		strings.TrimSpace(form.Email) != "" ||
		strings.TrimSpace(form.Message) != ""
}
