package frame

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// A frame is "<tag>,<json>" carried in one websocket text message.

var ErrMalformed = errors.New("malformed frame")

func Encode(tag string, payload any) ([]byte, error) {
	if tag == "" || bytes.ContainsRune([]byte(tag), ',') {
		return nil, fmt.Errorf("%w: bad tag %q", ErrMalformed, tag)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(tag)+1+len(data))
	buf = append(buf, tag...)
	buf = append(buf, ',')
	return append(buf, data...), nil
}

// Decode splits a frame into its tag and raw json payload. An empty payload is returned as nil.
func Decode(data []byte) (string, json.RawMessage, error) {
	tag, payload, ok := bytes.Cut(data, []byte{','})
	if !ok || len(tag) == 0 {
		return "", nil, ErrMalformed
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return string(tag), nil, nil
	}
	if !json.Valid(payload) {
		return "", nil, fmt.Errorf("%w: payload of %q is not json", ErrMalformed, tag)
	}
	return string(tag), json.RawMessage(payload), nil
}
