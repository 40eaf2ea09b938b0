// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request data.
// Bodies may be JSON objects or form-encoded, and both are read through the
// same accessor.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensedash/internal/services"
)

// maxBodyBytes caps request bodies; a submission is a handful of fields.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most maxBodyBytes once and stores them for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	if p.err != nil {
		p.err = fmt.Errorf("invalid form body: %w", p.err)
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form). The
// first key present wins, so callers can list aliases.
func (p *RequestBodyParser) Get(keys ...string) string {
	for _, key := range keys {
		if p.jsonData != nil {
			if val, ok := p.jsonData[key]; ok && val != nil {
				return sanitizeInput(stringValue(val))
			}
			continue
		}
		if p.formData != nil && p.formData.Has(key) {
			return sanitizeInput(p.formData.Get(key))
		}
	}
	return ""
}

// GetBool reads a checkbox-style flag. Absent means false.
func (p *RequestBodyParser) GetBool(keys ...string) (bool, error) {
	v := strings.ToLower(p.Get(keys...))
	switch v {
	case "", "false", "0", "no", "off":
		return false, nil
	case "true", "1", "yes", "on":
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}

// GetInt reads an optional integer. Absent means zero.
func (p *RequestBodyParser) GetInt(keys ...string) (int, error) {
	v := p.Get(keys...)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// GetFloat reads an optional number, accepting a trailing percent sign.
func (p *RequestBodyParser) GetFloat(keys ...string) (float64, error) {
	v := strings.TrimSuffix(p.Get(keys...), "%")
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	return f, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// ParseSubmission maps a parsed body onto a submission. Malformed numeric
// or boolean fields are reported as validation errors on that field.
func ParseSubmission(p *RequestBodyParser) (services.Submission, error) {
	sub := services.Submission{
		Name:           p.Get("name", "expenseName"),
		Category:       p.Get("category"),
		Amount:         p.Get("amount"),
		Date:           p.Get("date"),
		PaymentMethod:  p.Get("paymentMethod", "payment_method"),
		OriginalAmount: p.Get("originalAmount", "original_amount"),
	}

	var err error
	if sub.Shared, err = p.GetBool("shared"); err != nil {
		return sub, &services.ValidationError{Field: "shared", Err: err}
	}
	if sub.SplitBetween, err = p.GetInt("splitBetween", "split_between"); err != nil {
		return sub, &services.ValidationError{Field: "splitBetween", Err: err}
	}
	if sub.SplitPercentage, err = p.GetFloat("splitPercentage", "split_percentage"); err != nil {
		return sub, &services.ValidationError{Field: "splitPercentage", Err: err}
	}
	return sub, nil
}
