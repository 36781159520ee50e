package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/pos-sales/internal/apperr"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeJSON strictly decodes the request body into dest and validates it.
// Every failure is an apperr.Validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &apperr.Error{Kind: apperr.Validation, Msg: "invalid request body", Err: err}
	}
	if dec.More() {
		return apperr.Validationf("", "request body must contain a single JSON object")
	}
	return validateStruct(dest)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &apperr.Error{Kind: apperr.Validation, Msg: "validation failed", Err: err}
	}
	sort.Slice(verrs, func(i, j int) bool { return verrs[i].Field() < verrs[j].Field() })
	fe := verrs[0]
	return apperr.Validationf(fe.Field(), "%s", validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", fe.Param())
	}
	return "is invalid"
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	return positiveInt(name, r.PathValue(name))
}

// queryID parses a required positive integer query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	return positiveInt(name, r.URL.Query().Get(name))
}

func positiveInt(name, raw string) (int64, error) {
	if raw == "" {
		return 0, apperr.Validationf(name, "is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validationf(name, "must be a positive integer")
	}
	return id, nil
}
