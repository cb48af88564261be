/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// params is a set of request fields. A field is present when its key was
// supplied, even with an empty value.
type params map[string]string

func (p params) get(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// appendPresent appends the value of every present field in order
func (p params) appendPresent(args []string, names ...string) []string {
	for _, name := range names {
		if v, ok := p.get(name); ok {
			args = append(args, v)
		}
	}
	return args
}

func queryParams(r *http.Request) params {
	return fromValues(r.URL.Query())
}

func pathParams(r *http.Request) params {
	return params(mux.Vars(r))
}

func fromValues(values url.Values) params {
	p := params{}
	for k, v := range values {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
	return p
}

// bodyParams reads a JSON or urlencoded request body
func bodyParams(w http.ResponseWriter, r *http.Request, maxBytes int64) (params, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return params{}, nil
	}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid content type %s", ct)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errors.Wrap(err, "failed to parse form body")
		}
		return fromValues(r.PostForm), nil
	case "application/json":
		return jsonParams(r)
	default:
		return nil, errors.Errorf("unsupported content type %s", mediaType)
	}
}

func jsonParams(r *http.Request) (params, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	fields := map[string]interface{}{}
	if err := decoder.Decode(&fields); err != nil {
		if err == io.EOF {
			return params{}, nil
		}
		return nil, errors.Wrap(err, "failed to decode JSON body")
	}

	p := params{}
	for k, v := range fields {
		if v == nil {
			continue
		}
		s, err := stringify(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for %s", k)
		}
		p[k] = s
	}
	return p, nil
}

// stringify converts a JSON scalar to its string form. Objects and arrays are
// passed on as compact JSON.
func stringify(v interface{}) (string, error) {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		buf := &bytes.Buffer{}
		encoder := json.NewEncoder(buf)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(v); err != nil {
			return "", err
		}
		return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
	default:
		return cast.ToStringE(v)
	}
}
