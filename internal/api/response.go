package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logging.Error().Err(err).Msg("error encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// message writes a {"message": ...} response.
func message(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"message": msg})
}

// decodeJSON decodes the request body into target, rejecting unknown fields
// and trailing data, and validates the result.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Invalid("request body is required")
		}
		return model.Invalid("invalid request body: %v", err)
	}
	if dec.More() {
		return model.Invalid("invalid request body: unexpected data after JSON object")
	}
	return validation.Struct(target)
}

// pathID parses the named URL parameter as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.Invalid("invalid %s", strings.ReplaceAll(name, "_", " "))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, model.Invalid("%s must be an integer", name)
	}
	return n, nil
}

// dateLayout is the plain date format accepted next to RFC 3339.
const dateLayout = "2006-01-02"

// Date is a request date. It accepts "2006-01-02" and RFC 3339 values.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("date must be a string")
	}
	t, _, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// parseDate parses s as RFC 3339 or as a plain date. dateOnly reports the
// latter.
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
}

// queryDate parses an optional date query parameter. With endOfDay a plain
// date covers the whole day.
func queryDate(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	t, dateOnly, err := parseDate(s)
	if err != nil {
		return nil, model.Invalid("%s: %v", name, err)
	}
	if dateOnly && endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

// timeOf returns the time of an optional request date.
func timeOf(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
