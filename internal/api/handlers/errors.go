package handlers

import (
	"net/http"

	"vectorbase/internal/api/response"
	vberrors "vectorbase/internal/errors"
)

// writeServiceError maps an error returned by the service facade onto the
// HTTP response, using the StandardError's own status mapping when
// available and falling back to a generic 500 otherwise.
func writeServiceError(w http.ResponseWriter, err error) {
	if stdErr, ok := err.(*vberrors.StandardError); ok {
		stdErr.WriteHTTPError(w)
		return
	}
	response.WriteInternalError(w, "unexpected error", err.Error())
}
