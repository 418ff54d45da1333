package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pathfinder/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type nodeInput struct {
	Name string `validate:"required,max=255"`
}

type edgeInput struct {
	SrcID int64 `validate:"gt=0"`
	DstID int64 `validate:"gt=0"`
}

// validationError turns validator failures into a domain validation error
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewError(domain.KindValidation, err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fieldLabel(fe.Field())))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fieldLabel(fe.Field()), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be a positive integer", fieldLabel(fe.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fieldLabel(fe.Field()), fe.Tag()))
		}
	}
	return domain.NewError(domain.KindValidation, strings.Join(msgs, "; "))
}

func fieldLabel(field string) string {
	switch field {
	case "Name":
		return "node name"
	case "SrcID":
		return "source id"
	case "DstID":
		return "destination id"
	default:
		return strings.ToLower(field)
	}
}

// ParseID parses a form field as a positive node or edge id
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.KindInvalidInput, fmt.Sprintf("%s must be a positive integer, got %q", field, raw))
	}
	return id, nil
}
