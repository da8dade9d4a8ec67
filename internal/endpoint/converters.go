package endpoint

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/units"

	"github.com/eugenenazirov/propconf/internal/configurer"
)

// RegisterConverters installs the converters endpoint configuration types depend on.
func RegisterConverters(c *configurer.Converters) {
	configurer.RegisterConverter(c, parseByteSize)
}

// parseByteSize accepts sizes such as "64KiB", "1MB" (base 2) or a plain byte count.
func parseByteSize(value any) (units.Base2Bytes, error) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return byteCount(n)
		}
		n, err := units.ParseBase2Bytes(v)
		if err != nil {
			return 0, err
		}
		return byteCount(int64(n))
	case int:
		return byteCount(int64(v))
	case int32:
		return byteCount(int64(v))
	case int64:
		return byteCount(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("byte size %d out of range", v)
		}
		return byteCount(int64(v))
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 {
			return 0, fmt.Errorf("byte size %v is not a whole number", v)
		}
		return byteCount(int64(v))
	default:
		return 0, fmt.Errorf("cannot read a byte size from %T", value)
	}
}

func byteCount(n int64) (units.Base2Bytes, error) {
	if n < 0 {
		return 0, fmt.Errorf("byte size %d is negative", n)
	}
	return units.Base2Bytes(n), nil
}
