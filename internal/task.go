package internal

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TitleMaxLength is the maximum number of characters a Task title may have.
const TitleMaxLength = 191

const (
	msgTitleRequired = "title is required"
	msgTitleTooLong  = "title must be at most 191 characters"
)

// Task is an activity that needs to be completed.
type Task struct {
	ID        int64
	Title     string
	Completed bool
	CreatedAt time.Time
	IsDeleted bool
}

// CreateTaskParams defines the arguments used for creating Task records.
type CreateTaskParams struct {
	Title string
}

// Validate indicates whether the fields are valid or not.
func (c CreateTaskParams) Validate() error {
	if err := ValidateTitle(c.Title); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation")
	}

	return nil
}

// ValidateTitle checks title presence and length, the returned error is a validation.Error.
func ValidateTitle(title string) error {
	return validation.Validate(title,
		validation.Required.Error(msgTitleRequired),
		validation.RuneLength(1, TitleMaxLength).Error(msgTitleTooLong),
	)
}
