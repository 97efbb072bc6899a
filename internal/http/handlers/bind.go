package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// bindError describes a request body that could not be decoded.
type bindError struct {
	tooLarge bool
	details  gin.H
	fields   []user.FieldError
}

// decodeJSON reads the body into out. An empty body decodes as {} so the
// schema checks report the missing fields. Unknown fields are ignored.
func decodeJSON(ctx *gin.Context, out any) *bindError {
	err := ctx.ShouldBindJSON(out)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	return parseBindError(err)
}

func parseBindError(err error) *bindError {
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		return &bindError{tooLarge: true}
	}

	// in the event of bad json
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &bindError{details: gin.H{"json": "invalid_json_syntax"}}
	}

	// in the event of a type mismatch
	var unmatchedTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmatchedTypeError) {
		field := strings.TrimSpace(unmatchedTypeError.Field)

		be := &bindError{details: gin.H{"json": "invalid_json_type"}}
		if field != "" {
			be.details["field"] = field
			be.fields = []user.FieldError{{
				Field: field,
				Rule:  "type",
				Param: unmatchedTypeError.Type.String(),
			}}
		}
		return be
	}

	// final fallback if the error could not be deciphered
	return &bindError{details: gin.H{"json": "invalid_json", "reason": fmt.Sprintf("%T", err)}}
}
