package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/navmatch/pkg/util"
	"go.uber.org/zap"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorEnvelope(status int, message any) envelope {
	return envelope{"error": map[string]any{
		"code":    http.StatusText(status),
		"message": message,
	}}
}

type responder struct {
	log *zap.Logger
}

func (rs responder) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := writeJSON(w, status, errorEnvelope(status, message), nil); err != nil {
		rs.log.Error("write error response", zap.Error(err), zap.String("path", r.URL.Path))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (rs responder) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	rs.log.Error("internal server error", zap.Error(err), zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	rs.errorResponse(w, r, http.StatusInternalServerError, util.MessageInternalServerError)
}

func (rs responder) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	rs.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (rs responder) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	rs.errorResponse(w, r, http.StatusNotFound, err.Error())
}

// getStatusCode. write the error response matching the util.Error code of err.
func (rs responder) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	var uerr *util.Error
	if !errors.As(err, &uerr) {
		rs.ServerErrorResponse(w, r, err)
		return
	}
	switch uerr.Code() {
	case util.ErrBadParamInput:
		rs.BadRequestResponse(w, r, err)
	case util.ErrNotFound:
		rs.NotFoundResponse(w, r, err)
	default:
		rs.ServerErrorResponse(w, r, err)
	}
}

// validateStruct. validator errors translated to english and joined into one error.
func validateStruct(v any) error {
	validate := validator.New()
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	vv := translateError(err, trans)
	vvString := []string{}
	for _, v := range vv {
		vvString = append(vvString, v.Error())
	}
	return fmt.Errorf("validation error: %v", vvString)
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
