package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "carbroker/pkg/errors"
)

func QueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// QueryFloat returns ok=false when the parameter is absent.
func QueryFloat(r *http.Request, name string) (float64, bool, error) {
	s := QueryString(r, name)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v < 0 {
		return 0, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, true, nil
}

func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	s := QueryString(r, name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

// DecodeJSON rejects unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}
