// Package formutil decodes request input: JSON bodies, multipart bodies
// with a JSON "payload" part plus file parts, path ids and query values.
//
// Decoding failures are returned as apperr validation errors so handlers
// can pass them straight to the error writer.
package formutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MaxJSONBody bounds a plain JSON request.
	MaxJSONBody = 1 << 20
	// MaxMultipartBody bounds a multipart request, files included.
	MaxMultipartBody = 64 << 20
	// multipartMemory is what ParseMultipartForm keeps in memory before
	// spilling to temp files.
	multipartMemory = 8 << 20

	// PayloadField is the multipart part holding the JSON document.
	PayloadField = "payload"
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
)

// DecodeJSON reads a JSON body of at most MaxJSONBody bytes into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	return decode(r.Body, dst)
}

func decode(rd io.Reader, dst any) error {
	err := json.NewDecoder(rd).Decode(dst)
	var tooBig *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperr.Invalid("body", "request body is empty")
	case errors.As(err, &tooBig):
		return apperr.Invalid("body", fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
	default:
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Invalid(typeErr.Field, "has the wrong type")
		}
		return apperr.Invalid("body", "malformed JSON")
	}
}

// File is one uploaded file part. Body stays valid until the cleanup
// function returned by DecodeRequest runs.
type File struct {
	Field       string
	Filename    string
	Size        int64
	ContentType string
	Body        multipart.File
}

// IsMultipart reports whether r carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// DecodeRequest decodes dst from a JSON body, or from the "payload" part of
// a multipart body. For multipart bodies it also opens the first file of
// each named field. The cleanup function closes the files and removes any
// temp files; it is never nil.
func DecodeRequest(w http.ResponseWriter, r *http.Request, dst any, fileFields ...string) ([]File, func(), error) {
	noop := func() {}
	if !IsMultipart(r) {
		return nil, noop, DecodeJSON(w, r, dst)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, noop, apperr.Invalid("body", fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
		}
		return nil, noop, apperr.Invalid("body", "malformed multipart body")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	payload := r.MultipartForm.Value[PayloadField]
	if len(payload) == 0 {
		cleanup()
		return nil, noop, apperr.Required(PayloadField)
	}
	if err := decode(strings.NewReader(payload[0]), dst); err != nil {
		cleanup()
		return nil, noop, err
	}

	var files []File
	closeAll := func() {
		for _, f := range files {
			_ = f.Body.Close()
		}
		cleanup()
	}
	for _, field := range fileFields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		for _, fh := range headers {
			body, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, noop, apperr.Invalid(field, "could not read upload")
			}
			files = append(files, File{
				Field:       field,
				Filename:    fh.Filename,
				Size:        fh.Size,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        body,
			})
		}
	}
	return files, closeAll, nil
}

// ObjectID parses the chi URL parameter name. A malformed id cannot name
// any row, so it is reported as not found.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.ErrNotFound
	}
	return id, nil
}

// ObjectIDs parses a list of hex ids supplied in a body field.
func ObjectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(h))
		if err != nil {
			return nil, apperr.Invalid(field, fmt.Sprintf("%q is not a valid id", h))
		}
		out = append(out, id)
	}
	return out, nil
}

// Date parses a yyyy-mm-dd value. An empty value yields the zero time so
// the required check stays with the caller.
func Date(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "must be a date in yyyy-mm-dd form")
	}
	return t, nil
}

// OptionalDate is Date for a field that may be omitted or null.
func OptionalDate(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := Date(field, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// QueryObjectID parses an optional id from the query string.
func QueryObjectID(r *http.Request, key string) (*primitive.ObjectID, error) {
	v := query.Get(r, key)
	if v == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return nil, apperr.Invalid(key, "is not a valid id")
	}
	return &id, nil
}

// QueryBool parses an optional true/false filter from the query string.
func QueryBool(r *http.Request, key string) (*bool, error) {
	v := query.Get(r, key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperr.Invalid(key, "must be true or false")
	}
	return &b, nil
}

// QueryDate parses an optional yyyy-mm-dd value from the query string.
func QueryDate(r *http.Request, key string) (*time.Time, error) {
	v := query.Get(r, key)
	if v == "" {
		return nil, nil
	}
	t, err := Date(key, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
