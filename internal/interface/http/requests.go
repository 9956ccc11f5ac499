package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// The field names are the ones existing web clients already send.
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	UUID     string `json:"uuid" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
}

type joinRequest struct {
	UUID      string `json:"uuid" validate:"required,max=128"`
	GroupName string `json:"groupName" validate:"required,max=64"`
	Secret    string `json:"secret" validate:"max=128"`
}

type joinAnonymousRequest struct {
	Username  string `json:"username" validate:"required,max=64"`
	GroupName string `json:"groupName" validate:"required,max=64"`
	Secret    string `json:"secret" validate:"max=128"`
}

type leaveRequest struct {
	UUID      string `json:"uuid" validate:"required,max=128"`
	GroupName string `json:"groupName" validate:"required,max=64"`
}

type createGroupRequest struct {
	GroupName   string `json:"groupName" validate:"required,max=64"`
	GroupSecret string `json:"groupSecret" validate:"required,max=128"`
	Privacy     bool   `json:"privacy"`
	UUID        string `json:"uuid" validate:"required,max=128"`
}

type deleteGroupRequest struct {
	GroupName string `json:"groupName" validate:"required,max=64"`
	UUID      string `json:"uuid" validate:"required,max=128"`
}

type changePrivacyRequest struct {
	GroupName string `json:"groupName" validate:"required,max=64"`
	Privacy   *bool  `json:"privacy" validate:"required"`
}

type changeSecretRequest struct {
	GroupName string `json:"groupName" validate:"required,max=64"`
	NewSecret string `json:"newSecret" validate:"required,max=128"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DECODING
// ══════════════════════════════════════════════════════════════════════════════

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errBadRequest marks a body that could not be decoded or validated.
type errBadRequest struct {
	message string
	details string
}

func (e *errBadRequest) Error() string {
	if e.details == "" {
		return e.message
	}
	return e.message + ": " + e.details
}

// decodeBody reads a JSON body of at most limit bytes into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &errBadRequest{message: "Malformed JSON body", details: err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return &errBadRequest{message: "Request validation failed", details: describeValidation(err)}
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
