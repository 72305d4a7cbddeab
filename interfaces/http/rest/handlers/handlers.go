// Package handlers implements the REST endpoints of the /api/v1 surface.
// Handlers decode and validate the request, call one application service and
// render the result; every failure goes through the shared ErrorHandler.
package handlers

import (
	"net/http"

	"learnboard/pkg/common"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/utils"
)

// decodeAndValidate reads the JSON body into req and checks its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) error {
	if err := common.DecodeJSON(w, r, req); err != nil {
		return err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// requiredQuery returns a query parameter that must be present.
func requiredQuery(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", apperrors.NewValidationError(name + " is required")
	}
	return v, nil
}
