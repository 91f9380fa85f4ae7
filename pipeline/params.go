package pipeline

import (
	"maps"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/onion/validation"
)

// Parameters are the named values a middleware is constructed with.
type Parameters map[string]any

// Clone returns a shallow copy of p. A nil p stays nil.
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Merge combines call-time and registration-time parameters. Call-time
// entries win; registration-time entries only fill keys that are absent.
// The merge is shallow and the result is always a new, non-nil map.
func Merge(callTime, registration Parameters) Parameters {
	merged := make(Parameters, len(callTime)+len(registration))
	maps.Copy(merged, registration)
	maps.Copy(merged, callTime)
	return merged
}

// Decode decodes params into out (a pointer to a struct) and validates the
// result with its `validate` tags. Keys match `mapstructure` tags; strings
// are weakly converted, so "250ms" decodes into a time.Duration.
func Decode(params Parameters, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(params)); err != nil {
		return err
	}
	return validation.Validate(out)
}
