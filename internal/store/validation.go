package store

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aethra/steward/schema"
)

// ValidationFailure carries per-field validation messages in the shape the
// API serializes under "errors".
type ValidationFailure struct {
	Fields map[string][]string
}

func (v *ValidationFailure) Error() string {
	names := make([]string, 0, len(v.Fields))
	for name := range v.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed for %v", names)
}

// validateAndFilter coerces the submitted payload against the entity
// descriptor and applies the per-field validation rules. It returns the
// cleaned row ready for insert, or a ValidationFailure listing every
// failing field.
func (e *Engine) validateAndFilter(entity *schema.Entity, data Record) (Record, *ValidationFailure) {
	row := make(Record, len(entity.Fields))
	failures := make(map[string][]string)

	for i := range entity.Fields {
		field := &entity.Fields[i]
		raw, present := data[field.Name]
		var value any
		if present {
			value = field.Coerce(raw)
		} else {
			value = field.ZeroValue()
		}
		row[field.Name] = value

		for _, rule := range fieldRules(field) {
			if err := validation.Validate(value, rule); err != nil {
				failures[field.Name] = append(failures[field.Name], err.Error())
			}
		}
	}

	if len(failures) > 0 {
		return nil, &ValidationFailure{Fields: failures}
	}
	return row, nil
}

// fieldRules builds the rule set for one field. Messages follow the
// "The <field> ..." phrasing the admin UI renders under each input.
func fieldRules(f *schema.Field) []validation.Rule {
	var rules []validation.Rule

	// Zero is a legitimate value for bools and numbers, so required only
	// guards the text-like types.
	if f.Required && f.Type != schema.TypeBool && f.Type != schema.TypeNumber {
		rules = append(rules, validation.Required.Error(
			fmt.Sprintf("The %s field is required.", f.Name)))
	}

	switch f.Type {
	case schema.TypeString, schema.TypeText, schema.TypeFile:
		if f.MinLength > 0 || f.MaxLength > 0 {
			max := f.MaxLength
			if max == 0 {
				max = 65535
			}
			rules = append(rules, validation.Length(f.MinLength, max).Error(
				fmt.Sprintf("The %s must be between %d and %d characters.", f.Name, f.MinLength, max)))
		}
	case schema.TypeNumber:
		if f.Min != nil {
			rules = append(rules, validation.Min(*f.Min).Error(
				fmt.Sprintf("The %s must be at least %v.", f.Name, *f.Min)))
		}
		if f.Max != nil {
			rules = append(rules, validation.Max(*f.Max).Error(
				fmt.Sprintf("The %s may not be greater than %v.", f.Name, *f.Max)))
		}
	}

	return rules
}
