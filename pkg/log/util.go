package log

import (
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
)

// toFields turns logr-style key/value arguments into zap fields. A bare error
// or zap.Field is accepted in place of a pair. Byte slices are logged as hex
// so sector contents stay readable.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, val := args[i], args[i+1]
		i += 2

		name, ok := key.(string)
		if !ok {
			fields = append(fields, zap.Any(fmt.Sprintf("invalid_key_%d", i/2), map[string]any{
				"key":   key,
				"value": val,
			}))
			continue
		}
		fields = append(fields, field(name, val))
	}
	return fields
}

func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case []byte:
		return zap.String(key, hex.EncodeToString(v))
	case error:
		return zap.NamedError(key, v)
	default:
		return zap.Any(key, v)
	}
}
