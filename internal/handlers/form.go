package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aawaaz/civic-portal/internal/media"
)

// mediaField is the multipart field carrying attachments
const mediaField = "media"

var errTooLarge = errors.New("request body too large")

// complaintForm is a complaint submission read from either multipart/form-data
// or a JSON body. JSON bodies cannot carry files.
type complaintForm struct {
	values  map[string][]string
	files   []media.Upload
	cleanup func()
}

func (f *complaintForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *complaintForm) get(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f *complaintForm) optional(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.get(key)
	return &v
}

// list reads a field that is either repeated or a JSON-encoded array
func (f *complaintForm) list(key string) ([]string, error) {
	raw := f.values[key]
	if len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw[0]), &out); err != nil {
			return nil, err
		}
		raw = out
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func parseComplaintForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*complaintForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	form := &complaintForm{values: map[string][]string{}, cleanup: func() {}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, bodyErr(err)
		}
		mf := r.MultipartForm
		form.cleanup = func() { _ = mf.RemoveAll() }
		for k, v := range mf.Value {
			form.values[k] = v
		}
		for _, fh := range mf.File[mediaField] {
			form.files = append(form.files, uploadFrom(fh))
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyErr(err)
		}
		for k, v := range r.PostForm {
			form.values[k] = v
		}
	default:
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, bodyErr(err)
		}
		for k, v := range raw {
			if string(v) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				form.values[k] = []string{s}
				continue
			}
			var list []string
			if err := json.Unmarshal(v, &list); err == nil {
				form.values[k] = list
				continue
			}
			return nil, errors.New("field " + k + " must be a string")
		}
	}
	return form, nil
}

func uploadFrom(fh *multipart.FileHeader) media.Upload {
	return media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func bodyErr(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errTooLarge
	}
	return err
}

func respondFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	respondError(w, http.StatusBadRequest, "Invalid form data")
}
