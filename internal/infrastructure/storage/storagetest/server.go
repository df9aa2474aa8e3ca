// Package storagetest provides an in-memory S3 endpoint for exercising the
// MinIO adapter over real HTTP.
package storagetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Request is one upstream call as seen by the server.
type Request struct {
	Method string
	Key    string
	Range  string
}

func (r Request) String() string {
	if r.Range == "" {
		return r.Method + " " + r.Key
	}
	return r.Method + " " + r.Key + " " + r.Range
}

type object struct {
	data        []byte
	contentType string
}

// Server serves a single path-style bucket. It honours single byte ranges on
// GET and records every object request.
type Server struct {
	*httptest.Server

	bucket   string
	modified time.Time

	mu       sync.Mutex
	objects  map[string]object
	requests []Request
}

// NewServer starts a Server that is closed when t finishes.
func NewServer(t testing.TB, bucket string) *Server {
	t.Helper()

	s := &Server{
		bucket:   bucket,
		modified: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		objects:  make(map[string]object),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns host:port for minio.New.
func (s *Server) Endpoint() string {
	return strings.TrimPrefix(s.URL, "http://")
}

func (s *Server) Put(key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, contentType: contentType}
}

// Requests returns the object requests received so far. Bucket-level calls
// are not recorded.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != s.bucket {
		s.writeError(w, r, http.StatusNotFound, "NoSuchBucket")
		return
	}

	if key == "" {
		if _, ok := r.URL.Query()["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	rangeHeader := r.Header.Get("Range")
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Key: key, Range: rangeHeader})
	obj, ok := s.objects[key]
	s.mu.Unlock()

	if !ok {
		s.writeError(w, r, http.StatusNotFound, "NoSuchKey")
		return
	}

	h := w.Header()
	h.Set("Last-Modified", s.modified.Format(http.TimeFormat))
	h.Set("ETag", `"`+strconv.Itoa(len(obj.data))+`"`)
	h.Set("Accept-Ranges", "bytes")
	if obj.contentType != "" {
		h.Set("Content-Type", obj.contentType)
	}

	size := int64(len(obj.data))
	switch r.Method {
	case http.MethodHead:
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if rangeHeader == "" {
			h.Set("Content-Length", strconv.FormatInt(size, 10))
			w.WriteHeader(http.StatusOK)
			w.Write(obj.data)
			return
		}
		start, end, ok := parseRange(rangeHeader, size)
		if !ok {
			s.writeError(w, r, http.StatusRequestedRangeNotSatisfiable, "InvalidRange")
			return
		}
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		h.Set("Content-Length", strconv.FormatInt(end-start+1, 10))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(obj.data[start : end+1])
	default:
		s.writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><Resource>%s</Resource><RequestId>test</RequestId></Error>`,
		code, code, r.URL.Path)
}

// parseRange accepts bytes=S-E and bytes=S-.
func parseRange(header string, size int64) (int64, int64, bool) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, false
	}
	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start >= size {
		return 0, 0, false
	}
	end := size - 1
	if last != "" {
		if end, err = strconv.ParseInt(last, 10, 64); err != nil || end < start {
			return 0, 0, false
		}
	}
	return start, min(end, size-1), true
}
