package testapp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const maxBodySize = 1 << 20

type fieldErrors map[string][]string

func (e fieldErrors) add(field, message string) {
	e[field] = append(e[field], message)
}

func writeFieldErrors(w http.ResponseWriter, errs fieldErrors) {
	writeJSON(w, http.StatusBadRequest, errs)
}

// readTaskInput decodes a JSON or form encoded task body. With a base task
// only the submitted fields change; without one name and project are
// required.
func (s *Server) readTaskInput(r *http.Request, base *Task) (TaskInput, fieldErrors, error) {
	values, err := readBody(r)
	if err != nil {
		return TaskInput{}, nil, err
	}

	var in TaskInput
	if base != nil {
		in = TaskInput{Project: base.Project, Name: base.Name, Done: base.Done, Due: base.Due}
	}
	errs := make(fieldErrors)

	if raw, ok := values["name"]; ok {
		name, isString := raw.(string)
		switch {
		case !isString:
			errs.add("name", "Not a valid string.")
		case strings.TrimSpace(name) == "":
			errs.add("name", "This field may not be blank.")
		default:
			in.Name = strings.TrimSpace(name)
		}
	} else if base == nil {
		errs.add("name", "This field is required.")
	}

	if raw, ok := values["project"]; ok {
		project, valid := toInt64(raw)
		if valid {
			exists, err := s.store.ProjectExists(r.Context(), project)
			if err != nil {
				return TaskInput{}, nil, err
			}
			valid = exists
		}
		if valid {
			in.Project = project
		} else {
			errs.add("project", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(raw)))
		}
	} else if base == nil {
		errs.add("project", "This field is required.")
	}

	if raw, ok := values["done"]; ok {
		done, valid := toBool(raw)
		if valid {
			in.Done = done
		} else {
			errs.add("done", "Must be a valid boolean.")
		}
	}

	if raw, ok := values["due"]; ok {
		switch v := raw.(type) {
		case nil:
			in.Due = nil
		case string:
			if v == "" {
				in.Due = nil
				break
			}
			if _, err := time.Parse(time.DateOnly, v); err != nil {
				errs.add("due", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
				break
			}
			due := v
			in.Due = &due
		default:
			errs.add("due", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		}
	}

	if len(errs) > 0 {
		return TaskInput{}, errs, nil
	}
	return in, nil, nil
}

func readBody(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, errors.New("malformed form body")
		}
		values := make(map[string]any, len(r.PostForm))
		for key := range r.PostForm {
			values[key] = r.PostForm.Get(key)
		}
		return values, nil
	default:
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, errors.New("could not read request body")
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return map[string]any{}, nil
		}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		var values map[string]any
		if err := decoder.Decode(&values); err != nil {
			return nil, errors.New("JSON parse error")
		}
		return values, nil
	}
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1":
			return true, true
		case "false", "off", "0", "":
			return false, true
		}
	}
	return false, false
}
