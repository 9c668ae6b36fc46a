package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.opentelemetry.io/otel"

	"github.com/sanLimbu/todo-app/internal"
)

const otelName = "github.com/sanLimbu/todo-app/internal/rest"

// ErrorResponse represents a response containing an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func renderErrorResponse(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	resp := ErrorResponse{Error: fmt.Sprintf("%s: %v", msg, err)}
	status := http.StatusInternalServerError

	var ierr *internal.Error
	if errors.As(err, &ierr) {
		switch ierr.Code() {
		case internal.ErrorCodeNotFound:
			status = http.StatusNotFound
			resp.Error = ierr.Message()
		case internal.ErrorCodeInvalidArgument:
			status = http.StatusBadRequest
			resp.Error = ierr.Message()

			var verr validation.Error
			if errors.As(err, &verr) {
				resp.Error = verr.Error()
			}
		}
	}

	if err != nil {
		_, span := otel.Tracer(otelName).Start(ctx, "rest.renderErrorResponse")
		defer span.End()

		span.RecordError(err)
	}

	renderResponse(w, resp, status)
}

func renderResponse(w http.ResponseWriter, res interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")

	content, err := json.Marshal(res)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	_, _ = w.Write(content)
}
