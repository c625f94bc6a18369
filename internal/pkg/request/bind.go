package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/apperror"
)

var ErrEmptyBody = errors.New("request body is required")

// BindStrictJSON decodes the JSON body into dst, rejecting fields dst does not
// declare, then runs the struct's binding rules.
func BindStrictJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid json body: %w", err)
	}

	return binding.Validator.ValidateStruct(dst)
}

// Invalid wraps a binding or decoding failure as an INVALID_PAYLOAD error.
func Invalid(err error) error {
	return apperror.Wrap(err, http.StatusBadRequest, apperror.KindInvalidPayload, "invalid request: "+err.Error())
}
