package ticket_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ms-concerts/internal/models"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

// formValues reads query and urlencoded body parameters.
type formValues struct {
	url.Values
}

func (f formValues) Get(key string) string {
	return strings.TrimSpace(f.Values.Get(key))
}

func (f formValues) Int(key string) (int, error) {
	v := f.Get(key)
	if v == "" {
		return 0, invalid("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid("%s must be an integer", key)
	}
	return n, nil
}

func (f formValues) Float(key string) (float64, error) {
	v := f.Get(key)
	if v == "" {
		return 0, invalid("%s is required", key)
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalid("%s must be a number", key)
	}
	return n, nil
}

// bind fills dst from a JSON body, or from query and form parameters when
// the request carries no JSON.
func bind(r *http.Request, dst interface{}, fromForm func(formValues) error) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" && r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(dst)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, io.EOF):
			return invalid("invalid request body")
		}
	}

	if err := r.ParseForm(); err != nil {
		return invalid("invalid request parameters")
	}
	return fromForm(formValues{r.Form})
}
