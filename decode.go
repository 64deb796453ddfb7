package riskconf

import (
	mapstruct "github.com/mitchellh/mapstructure"
)

const decoderTagName = "conf"

// Decode decodes raw configuration data into a structure. The conf tags
// defined in the struct type indicate which fields the values are mapped
// to. Decoding is weakly typed: numeric strings convert to numbers, "true"
// and "1" convert to booleans, and so on, which lets string values sourced
// from the process environment or the parameter store populate typed
// fields.
func Decode(configRaw, config any) error {
	decoder, err := mapstruct.NewDecoder(
		&mapstruct.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           config,
			TagName:          decoderTagName,
		},
	)

	if err != nil {
		return err
	}

	return decoder.Decode(configRaw)
}
