package liqpay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// Envelope is the {data, signature} pair used for every signed exchange.
type Envelope struct {
	Data      string `url:"data" json:"data"`
	Signature string `url:"signature" json:"signature"`
}

// Values returns the envelope as form values.
func (e Envelope) Values() (url.Values, error) {
	v, err := query.Values(e)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode envelope")
	}
	return v, nil
}

// EncodeParams returns the canonical encoding of params: JSON with sorted object keys,
// numbers kept byte for byte, no HTML escaping, then standard base64.
func EncodeParams(params interface{}) (string, error) {
	m, err := canonicalize(params)
	if err != nil {
		return "", err
	}
	b, err := marshalJSON(m)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeParams decodes base64 JSON data into v.
func DecodeParams(data string, v interface{}) error {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// canonicalize converts params into a generic map so that key order and
// number formatting do not depend on the Go type used to build the request.
func canonicalize(params interface{}) (map[string]interface{}, error) {
	if params == nil {
		return map[string]interface{}{}, nil
	}

	b, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal params")
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	m := map[string]interface{}{}
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: params must encode to a JSON object: %v", ErrConfiguration, err)
	}

	return m, nil
}

func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to marshal params")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
