package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are accepted on input; dates are normalized to DateLayout.
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, time.RFC3339}

// CoercionError reports that a raw value could not be parsed as the type the
// field declares. It is surfaced to callers as a field-keyed validation
// error, never a crash.
type CoercionError struct {
	Field  string
	Kind   Kind
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce value for field %q to %s: %s", e.Field, e.Kind, e.Reason)
}

// Coerce converts raw into the canonical Go value for the field's kind:
// boolean -> bool, string -> string, json -> map[string]any, date -> string
// in DateLayout. Sections hold no answer and always fail.
func Coerce(f *Field, raw any) (any, error) {
	fail := func(reason string) (any, error) {
		return nil, &CoercionError{Field: f.Name, Kind: f.Kind, Reason: reason}
	}

	switch f.Kind {
	case KindSection:
		return fail("sections do not hold answers")

	case KindBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fail(fmt.Sprintf("%q is not a boolean", v))
			}
			return b, nil
		}
		return fail(fmt.Sprintf("unexpected type %T", raw))

	case KindString:
		switch v := raw.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return fail(fmt.Sprintf("unexpected type %T", raw))

	case KindJson:
		switch v := raw.(type) {
		case map[string]any:
			return v, nil
		case string:
			var m map[string]any
			if err := json.Unmarshal([]byte(v), &m); err != nil {
				return fail("not a JSON object")
			}
			return m, nil
		}
		return fail(fmt.Sprintf("unexpected type %T", raw))

	case KindDate:
		switch v := raw.(type) {
		case time.Time:
			return v.Format(DateLayout), nil
		case string:
			s := strings.TrimSpace(v)
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Format(DateLayout), nil
				}
			}
			return fail(fmt.Sprintf("%q is not a date", v))
		}
		return fail(fmt.Sprintf("unexpected type %T", raw))
	}

	return fail("unknown kind")
}
