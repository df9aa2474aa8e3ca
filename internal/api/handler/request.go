package handler

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

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/flixstream/internal/usecase"
	"github.com/hszk-dev/flixstream/internal/validation"
)

var errNotBool = errors.New("not a boolean")

// parseBool accepts true/false and 1/0 in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, errNotBool
}

// featuredFlag decodes is_featured sent as a JSON bool, 0/1, or a quoted
// "true"/"false"/"0"/"1".
type featuredFlag bool

func (f *featuredFlag) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	v, err := parseBool(strings.Trim(s, `"`))
	if err != nil {
		return validation.Field("is_featured", "boolean", "is_featured field must be true or false")
	}
	*f = featuredFlag(v)
	return nil
}

func parseVideoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodeJSON decodes the body into dst. Field-level decode failures come back
// as validation errors; anything else is a plain decode error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// form wraps a parsed multipart form and tracks opened files so they can be
// closed once the request is handled.
type form struct {
	*multipart.Form
	files []io.Closer
}

func (f *form) close() {
	for _, c := range f.files {
		c.Close()
	}
	if f.Form != nil {
		f.RemoveAll()
	}
}

func (f *form) value(name string) (string, bool) {
	vs, ok := f.Value[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *form) stringPtr(name string) *string {
	v, ok := f.value(name)
	if !ok {
		return nil
	}
	return &v
}

func (f *form) intPtr(name string) (*int, error) {
	v, ok := f.value(name)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, validation.Field(name, "integer", fmt.Sprintf("%s must be an integer", name))
	}
	return &n, nil
}

func (f *form) boolPtr(name string) (*bool, error) {
	v, ok := f.value(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	b, err := parseBool(v)
	if err != nil {
		return nil, validation.Field(name, "boolean", fmt.Sprintf("%s field must be true or false", name))
	}
	return &b, nil
}

// media returns the uploaded file under name, or the presigned key sent as
// <name>_key.
func (f *form) media(name string) (usecase.MediaInput, error) {
	if fhs := f.File[name]; len(fhs) > 0 {
		fh := fhs[0]
		file, err := fh.Open()
		if err != nil {
			return usecase.MediaInput{}, fmt.Errorf("open %s upload: %w", name, err)
		}
		f.files = append(f.files, file)
		return usecase.MediaInput{Upload: &usecase.FileUpload{
			Name:   fh.Filename,
			Size:   fh.Size,
			Reader: file,
		}}, nil
	}
	key, _ := f.value(name + "_key")
	return usecase.MediaInput{Key: key}, nil
}

func parseForm(r *http.Request, maxMemory int64) (*form, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	return &form{Form: r.MultipartForm}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
