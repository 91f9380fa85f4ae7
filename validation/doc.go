// Package validation validates configuration and layer parameter structs.
//
// Struct tags are checked with the go-playground validator; field names in
// messages follow the mapstructure key the value was configured under.
//
//	type RetryParams struct {
//	    MaxAttempts int `mapstructure:"max_attempts" validate:"min=1"`
//	}
//	err := validation.Validate(params)
//
// Cross-field rules go through the programmatic Validator:
//
//	v := validation.New().Merge(validation.Validate(cfg))
//	v.Check(cfg.Setter != "", "setter", "is required in setter mode")
//	err := v.Error()
package validation
