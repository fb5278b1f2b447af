package media

import (
	"encoding/base64"
	"fmt"
)

// Package applies the requested return format to outputs in place.
func Package(format ReturnFormat, outputs []Output) error {
	switch format {
	case ReturnURL, ReturnBytes:
		return nil
	case ReturnBase64:
		for i := range outputs {
			if outputs[i].Raw == nil {
				continue
			}
			outputs[i].Data = base64.StdEncoding.EncodeToString(outputs[i].Raw)
			outputs[i].Raw = nil
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported return format %q", ErrValidation, format)
	}
}
