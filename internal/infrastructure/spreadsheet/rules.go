package spreadsheet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/logimaster/backend/internal/domain/bulk"
)

// FieldType drives type coercion during rule evaluation
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInt     FieldType = "int"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeDate    FieldType = "date"
	FieldTypeBool    FieldType = "bool"
)

// FieldRule is one declarative validation rule for a column
type FieldRule struct {
	Field      string
	Title      string
	FieldType  FieldType
	Required   bool
	MaxLen     int
	Pattern    *regexp.Regexp
	PatternMsg string
	Enum       []string
	Min        *decimal.Decimal
	Max        *decimal.Decimal
	Custom     func(value string) string
}

// RuleBuilder builds field rules fluently
type RuleBuilder struct {
	rule FieldRule
}

// Rule starts a rule for a field key
func Rule(field, title string) *RuleBuilder {
	return &RuleBuilder{rule: FieldRule{Field: field, Title: title, FieldType: FieldTypeString}}
}

// Required marks the field as mandatory
func (b *RuleBuilder) Required() *RuleBuilder {
	b.rule.Required = true
	return b
}

// MaxLength caps the value length
func (b *RuleBuilder) MaxLength(n int) *RuleBuilder {
	b.rule.MaxLen = n
	return b
}

// Pattern requires the value to match a regular expression
func (b *RuleBuilder) Pattern(re *regexp.Regexp, msg string) *RuleBuilder {
	b.rule.Pattern = re
	b.rule.PatternMsg = msg
	return b
}

// Enum restricts the value to a fixed set
func (b *RuleBuilder) Enum(values ...string) *RuleBuilder {
	b.rule.Enum = values
	return b
}

// Int requires an integer value
func (b *RuleBuilder) Int() *RuleBuilder {
	b.rule.FieldType = FieldTypeInt
	return b
}

// Decimal requires a numeric value
func (b *RuleBuilder) Decimal() *RuleBuilder {
	b.rule.FieldType = FieldTypeDecimal
	return b
}

// Date requires a date value
func (b *RuleBuilder) Date() *RuleBuilder {
	b.rule.FieldType = FieldTypeDate
	return b
}

// Bool requires a boolean value
func (b *RuleBuilder) Bool() *RuleBuilder {
	b.rule.FieldType = FieldTypeBool
	return b
}

// Range bounds a numeric value inclusively
func (b *RuleBuilder) Range(min, max decimal.Decimal) *RuleBuilder {
	b.rule.Min = &min
	b.rule.Max = &max
	return b
}

// Custom attaches an extra check returning an error message or ""
func (b *RuleBuilder) Custom(fn func(value string) string) *RuleBuilder {
	b.rule.Custom = fn
	return b
}

// Build finalizes the rule
func (b *RuleBuilder) Build() FieldRule {
	return b.rule
}

// RuleSet validates one sheet's fields
type RuleSet struct {
	Sheet string
	Rules []FieldRule
}

// Validate evaluates every rule against one row's fields. A missing
// required value short-circuits the remaining checks for that field only;
// all other violations accumulate.
func (rs RuleSet) Validate(row int, fields map[string]string) []bulk.RecordError {
	var errs []bulk.RecordError
	add := func(field, code, message, value string) {
		errs = append(errs, bulk.RecordError{
			Sheet: rs.Sheet, Row: row, Field: field, Code: code, Message: message, Value: value,
		})
	}

	for _, rule := range rs.Rules {
		value := strings.TrimSpace(fields[rule.Field])

		if value == "" {
			if rule.Required {
				add(rule.Field, CodeRequiredField, fmt.Sprintf("%s is required", rule.Title), "")
			}
			continue
		}

		if rule.MaxLen > 0 && len(value) > rule.MaxLen {
			add(rule.Field, CodeMaxLength, fmt.Sprintf("%s cannot exceed %d characters", rule.Title, rule.MaxLen), value)
		}

		switch rule.FieldType {
		case FieldTypeInt:
			if n, err := ParseInt(value); err != nil {
				add(rule.Field, CodeInvalidNumber, fmt.Sprintf("%s must be a whole number", rule.Title), value)
			} else {
				errs = append(errs, rs.checkRange(rule, decimal.NewFromInt(int64(n)), row, value)...)
			}
		case FieldTypeDecimal:
			if d, err := ParseDecimal(value); err != nil {
				add(rule.Field, CodeInvalidNumber, fmt.Sprintf("%s must be a number", rule.Title), value)
			} else {
				errs = append(errs, rs.checkRange(rule, d, row, value)...)
			}
		case FieldTypeDate:
			if _, err := ParseDate(value); err != nil {
				add(rule.Field, CodeInvalidDate, fmt.Sprintf("%s must be a date like 2026-01-31", rule.Title), value)
			}
		case FieldTypeBool:
			if _, err := ParseBool(value); err != nil {
				add(rule.Field, CodeInvalidFormat, fmt.Sprintf("%s must be Yes or No", rule.Title), value)
			}
		}

		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			add(rule.Field, CodeInvalidFormat, rule.PatternMsg, value)
		}

		if len(rule.Enum) > 0 && !contains(rule.Enum, value) {
			add(rule.Field, CodeInvalidEnum,
				fmt.Sprintf("%s must be one of: %s", rule.Title, strings.Join(rule.Enum, ", ")), value)
		}

		if rule.Custom != nil {
			if msg := rule.Custom(value); msg != "" {
				add(rule.Field, CodeInvalidFormat, msg, value)
			}
		}
	}
	return errs
}

func (rs RuleSet) checkRange(rule FieldRule, d decimal.Decimal, row int, value string) []bulk.RecordError {
	if rule.Min == nil && rule.Max == nil {
		return nil
	}
	if (rule.Min != nil && d.LessThan(*rule.Min)) || (rule.Max != nil && d.GreaterThan(*rule.Max)) {
		return []bulk.RecordError{{
			Sheet: rs.Sheet, Row: row, Field: rule.Field, Code: CodeOutOfRange,
			Message: fmt.Sprintf("%s must be between %s and %s", rule.Title, rule.Min, rule.Max),
			Value:   value,
		}}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
