// Package validation checks and normalizes request input against declarative schemas.
package validation

import (
	"strings"
)

// Kind names a validation or normalization step.
type Kind string

const (
	KindTrim              Kind = "trim"
	KindOptional          Kind = "optional"
	KindRequired          Kind = "required"
	KindEmail             Kind = "email"
	KindLength            Kind = "length"
	KindAlphanumeric      Kind = "alphanumeric"
	KindPassword          Kind = "password"
	KindNotCommonPassword Kind = "not_common_password"
	KindAccepted          Kind = "accepted"
	KindTimezone          Kind = "timezone"
	KindStrength          Kind = "strength"
)

// Params carries rule arguments. Unused fields are ignored by kinds that do not need them.
type Params struct {
	Min     int
	Max     int
	Message string
	// Related names other fields whose values feed the strength estimator.
	Related []string
}

// Rule applies one Kind to one field.
type Rule struct {
	Field  string
	Kind   Kind
	Params Params
}

// Schema is an ordered list of rules. Rules for the same field run in order.
type Schema []Rule

// Input is the raw field map taken from a request.
type Input map[string]string

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of Validate.
type Result struct {
	Valid      bool
	Normalized map[string]string
	Errors     []FieldError
}

// Messages returns the error messages for field.
func (r Result) Messages(field string) []string {
	var out []string
	for _, fe := range r.Errors {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

// Validate runs schema against input. Every field is checked; a failed
// required rule or an empty optional field ends the rules for that field only.
func Validate(input Input, schema Schema) Result {
	order, byField := groupRules(schema)

	result := Result{Normalized: make(map[string]string, len(order))}
	for _, field := range order {
		value := input[field]
		for _, rule := range byField[field] {
			next, msgs, stop := apply(rule, value, input)
			value = next
			for _, msg := range msgs {
				result.Errors = append(result.Errors, FieldError{Field: field, Message: msg})
			}
			if stop {
				break
			}
		}
		result.Normalized[field] = value
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func groupRules(schema Schema) ([]string, map[string][]Rule) {
	order := make([]string, 0, len(schema))
	byField := make(map[string][]Rule, len(schema))
	for _, rule := range schema {
		if _, seen := byField[rule.Field]; !seen {
			order = append(order, rule.Field)
		}
		byField[rule.Field] = append(byField[rule.Field], rule)
	}
	return order, byField
}

// apply returns the possibly-normalized value, any failure messages and whether to stop.
func apply(rule Rule, value string, input Input) (string, []string, bool) {
	switch rule.Kind {
	case KindTrim:
		return strings.TrimSpace(value), nil, false
	case KindOptional:
		return value, nil, strings.TrimSpace(value) == ""
	case KindRequired:
		if strings.TrimSpace(value) == "" {
			return value, []string{message(rule, humanize(rule.Field)+" is required")}, true
		}
		return value, nil, false
	case KindEmail:
		normalized, msg := checkEmail(value)
		return normalized, nonEmpty(message(rule, msg), msg), msg != ""
	case KindLength:
		return value, nonEmpty(message(rule, ""), checkLength(rule, value)), false
	case KindAlphanumeric:
		return value, nonEmpty(message(rule, ""), checkAlphanumeric(rule, value)), false
	case KindPassword:
		return value, checkPassword(value), false
	case KindNotCommonPassword:
		if IsCommonPassword(value) {
			return value, []string{message(rule, "Password is too common, please choose another")}, false
		}
		return value, nil, false
	case KindAccepted:
		if !strings.EqualFold(strings.TrimSpace(value), "true") {
			return value, []string{message(rule, "You must accept the terms and conditions")}, false
		}
		return value, nil, false
	case KindTimezone:
		return value, nonEmpty(message(rule, ""), checkTimezone(value)), false
	case KindStrength:
		return value, nonEmpty(message(rule, ""), checkStrength(rule, value, input)), false
	default:
		return value, []string{"unknown validation rule " + string(rule.Kind)}, true
	}
}

// message prefers the schema override when a rule failed.
func message(rule Rule, fallback string) string {
	if rule.Params.Message != "" {
		return rule.Params.Message
	}
	return fallback
}

// nonEmpty returns []string{preferred} when detail is set. preferred falls back to detail.
func nonEmpty(preferred, detail string) []string {
	if detail == "" {
		return nil
	}
	if preferred == "" {
		preferred = detail
	}
	return []string{preferred}
}

func humanize(field string) string {
	switch field {
	case "fullName":
		return "Full name"
	case "agreeToTerms":
		return "Agreement to terms"
	}
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
