package services

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-portfolio-backend/internal/multilingual"
)

// fieldRule constrains one plain input field. Tag uses go-playground
// validator syntax and Message is reported when the tag fails.
type fieldRule struct {
	Field   string
	Tag     string
	Message string
}

// textRule constrains one bilingual field. Max applies to each language slot
// in runes. A required field needs text in at least one language.
type textRule struct {
	Field    string
	Required bool
	Max      int
}

// Rule tables.
var (
	categoryNameRule        = textRule{Field: "name", Required: true, Max: 100}
	categoryDescriptionRule = textRule{Field: "description", Max: 500}

	projectTitleRule       = textRule{Field: "title", Required: true, Max: 200}
	projectDescriptionRule = textRule{Field: "description", Max: 2000}
	projectURLRule         = fieldRule{Field: "projectUrl", Tag: "omitempty,max=2048,http_url", Message: "must be a valid URL starting with http or https"}
	projectCategoryRule    = fieldRule{Field: "categoryId", Tag: "required,uuid", Message: "must be a valid category id"}

	contactRules = struct {
		Name, Email, Phone, RequestedService, Notes fieldRule
	}{
		Name:             fieldRule{Field: "name", Tag: "required,max=100", Message: "is required and must be at most 100 characters"},
		Email:            fieldRule{Field: "email", Tag: "required,max=320,contact_email", Message: "must be a valid email address"},
		Phone:            fieldRule{Field: "phone", Tag: "required,max=20", Message: "is required and must be at most 20 characters"},
		RequestedService: fieldRule{Field: "requestedService", Tag: "omitempty,max=200", Message: "must be at most 200 characters"},
		Notes:            fieldRule{Field: "notes", Tag: "omitempty,max=1000", Message: "must be at most 1000 characters"},
	}
)

// contactEmailRE is deliberately loose: something@something.something with
// no whitespace.
var contactEmailRE = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
			return contactEmailRE.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// check validates a single value against r.
func (r fieldRule) check(value string) error {
	if err := validatorInstance().Var(value, r.Tag); err != nil {
		return &ValidationError{Field: r.Field, Message: r.Message}
	}
	return nil
}

// checkText validates a complete bilingual value.
func (r textRule) checkText(t multilingual.Text) error {
	if r.Required && t.IsBlank() {
		return &ValidationError{Field: r.Field, Message: "is required"}
	}
	for _, lang := range multilingual.Supported {
		if err := r.checkSlot(lang, t.Get(lang)); err != nil {
			return err
		}
	}
	return nil
}

// checkPatch validates the slots a partial update supplies.
func (r textRule) checkPatch(p multilingual.Patch) error {
	for lang, v := range p.Slots() {
		if err := r.checkSlot(lang, v); err != nil {
			return err
		}
	}
	return nil
}

func (r textRule) checkSlot(lang multilingual.Language, v string) error {
	if r.Max <= 0 {
		return nil
	}
	if err := validatorInstance().Var(v, fmt.Sprintf("max=%d", r.Max)); err != nil {
		return &ValidationError{
			Field:   r.Field + "." + lang.String(),
			Message: fmt.Sprintf("must be at most %d characters", r.Max),
		}
	}
	return nil
}

// trimText trims surrounding whitespace in every slot.
func trimText(t multilingual.Text) multilingual.Text {
	if t.IsLegacy() {
		return multilingual.Legacy(strings.TrimSpace(t.Plain()))
	}
	return multilingual.New(strings.TrimSpace(t.EN), strings.TrimSpace(t.AR))
}

// trimPatch trims surrounding whitespace in every supplied slot.
func trimPatch(p multilingual.Patch) multilingual.Patch {
	var out multilingual.Patch
	for lang, v := range p.Slots() {
		out.Set(lang, strings.TrimSpace(v))
	}
	return out
}
