package configurer

import (
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newProperties(t *testing.T) *gopter.Properties {
	t.Helper()
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	return gopter.NewProperties(params)
}

// mixCase flips the case of letters whose position is selected by mask.
func mixCase(s string, mask uint64) string {
	var b strings.Builder
	for i, r := range s {
		if mask&(1<<(uint(i)%64)) != 0 {
			if unicode.IsUpper(r) {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestConfigureProperties(t *testing.T) {
	c := newSampleConfigurer(t)
	names := c.Schema().Names()
	properties := newProperties(t)

	properties.Property("int64 values are stored unchanged", prop.ForAll(
		func(v int64) bool {
			target := &pollerConfig{}
			ok, err := Configure(target, "delay", v, false)
			return ok && err == nil && target.Delay == v
		},
		gen.Int64(),
	))

	properties.Property("decimal strings parse to the same int64", prop.ForAll(
		func(v int64) bool {
			target := &pollerConfig{}
			ok, err := Configure(target, "delay", strconv.FormatInt(v, 10), false)
			return ok && err == nil && target.Delay == v
		},
		gen.Int64(),
	))

	properties.Property("strings are stored exactly", prop.ForAll(
		func(v string) bool {
			target := &sample{}
			ok, err := c.Configure(target, "name", v, false)
			return ok && err == nil && target.Name == v
		},
		gen.AnyString(),
	))

	properties.Property("formatted booleans round trip", prop.ForAll(
		func(v bool) bool {
			target := &pollerConfig{Greedy: !v}
			ok, err := Configure(target, "greedy", strconv.FormatBool(v), false)
			return ok && err == nil && target.Greedy == v
		},
		gen.Bool(),
	))

	properties.Property("unknown names never modify the target", prop.ForAll(
		func(name string, ignoreCase bool) bool {
			if _, declared := c.Schema().Lookup(name, true); declared {
				return true
			}
			target := &sample{Name: "keep", Count: 7}
			before := *target
			ok, err := c.Configure(target, name, "value", ignoreCase)
			return !ok && err == nil && before.Name == target.Name && before.Count == target.Count
		},
		gen.Identifier(),
		gen.Bool(),
	))

	properties.Property("ignoring case matches any casing of a declared name", prop.ForAll(
		func(idx int, mask uint64) bool {
			name := names[idx]
			_, ok := c.Schema().Lookup(mixCase(name, mask), true)
			return ok
		},
		gen.IntRange(0, len(names)-1),
		gen.UInt64(),
	))

	properties.Property("configuring twice equals configuring once", prop.ForAll(
		func(v string, count int) bool {
			once, twice := &sample{}, &sample{}
			for _, target := range []*sample{once, twice} {
				if _, err := c.Configure(target, "name", v, false); err != nil {
					return false
				}
				if _, err := c.Configure(target, "count", count, false); err != nil {
					return false
				}
			}
			if _, err := c.Configure(twice, "name", v, false); err != nil {
				return false
			}
			if _, err := c.Configure(twice, "count", count, false); err != nil {
				return false
			}
			return once.Name == twice.Name && once.Count == twice.Count
		},
		gen.AlphaString(),
		gen.Int(),
	))

	properties.TestingRun(t)
}
