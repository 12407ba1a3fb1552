package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxKeyTextLen bounds the readable portion of a cache key; the full
// serialization is still captured by the appended hash.
const maxKeyTextLen = 160

// cacheKey returns a canonical key for the parameter set: non-empty fields
// serialized as sorted field=value pairs, truncated to a bounded length,
// with a hash of the full serialization appended so distinct parameter
// sets keep distinct keys regardless of URL size.
func (p Params) cacheKey() string {
	fields := map[string]string{
		"url":      p.URL,
		"rgb":      p.RGB,
		"nodata":   p.Nodata,
		"resample": p.Resample,
		"expr":     p.Expr,
	}
	if p.LinearStretch {
		fields["linearStretch"] = "true"
	}

	names := make([]string, 0, len(fields))
	for name, v := range fields {
		if v != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(fields[name])
	}
	canonical := b.String()

	text := canonical
	if len(text) > maxKeyTextLen {
		text = text[:maxKeyTextLen]
	}

	return fmt.Sprintf("%s:%016x", text, xxhash.Sum64String(canonical))
}
