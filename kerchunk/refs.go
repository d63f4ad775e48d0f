// Package kerchunk fetches, localizes and opens kerchunk reference
// documents: JSON files whose "refs" mapping points chunk keys either
// at inline content or at byte ranges inside remote files. The package
// provides the built-in reference-filesystem engine for the cloud
// client.
package kerchunk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultHost is the canonical remote host for catalog hrefs. Stripping
// it from an href yields the equivalent local filesystem path.
const DefaultHost = "https://dap.ceda.ac.uk"

// LocalPath converts an href to its local filesystem form by removing
// the remote host prefix.
func LocalPath(href, host string) string {
	return strings.ReplaceAll(href, host, "")
}

// Reference is a single entry in a reference document. It is one of:
//
//   - an inline scalar (raw or base64-encoded content),
//   - a 1-element [url] tuple referencing a whole file,
//   - a 3-element [url, offset, length] tuple referencing a byte range.
//
// Shapes outside these three are preserved verbatim and ignored by the
// reader.
type Reference struct {
	// Inline holds scalar content, possibly with a "base64:" prefix.
	Inline string

	// URL is the target of a tuple reference.
	URL string

	// Offset and Length delimit the byte range of a 3-element tuple.
	Offset int64
	Length int64

	arity int
	raw   json.RawMessage
}

// IsRange reports whether the reference is a [url, offset, length] tuple.
func (r Reference) IsRange() bool { return r.arity == 3 }

// IsWholeFile reports whether the reference is a 1-element [url] tuple.
func (r Reference) IsWholeFile() bool { return r.arity == 1 }

// IsInline reports whether the reference carries inline scalar content.
func (r Reference) IsInline() bool { return r.arity == 0 && r.raw == nil }

// UnmarshalJSON decodes the scalar-or-tuple wire forms.
func (r *Reference) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(b, &r.Inline)
	}
	if strings.HasPrefix(trimmed, "[") {
		var parts []json.RawMessage
		if err := json.Unmarshal(b, &parts); err != nil {
			return err
		}
		switch len(parts) {
		case 1:
			r.arity = 1
			return json.Unmarshal(parts[0], &r.URL)
		case 3:
			r.arity = 3
			if err := json.Unmarshal(parts[0], &r.URL); err != nil {
				return err
			}
			if err := json.Unmarshal(parts[1], &r.Offset); err != nil {
				return err
			}
			return json.Unmarshal(parts[2], &r.Length)
		}
	}
	// Unmodelled shape: keep the raw bytes so round-trips are lossless.
	r.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON re-encodes the reference in its original shape.
func (r Reference) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	switch r.arity {
	case 1:
		return json.Marshal([]any{r.URL})
	case 3:
		return json.Marshal([]any{r.URL, r.Offset, r.Length})
	default:
		return json.Marshal(r.Inline)
	}
}

// ReferenceSet is a parsed kerchunk reference document.
type ReferenceSet struct {
	Version   int                  `json:"version,omitempty"`
	Refs      map[string]Reference `json:"refs"`
	Templates map[string]string    `json:"templates,omitempty"`
}

// ParseReferenceSet decodes a reference document from JSON.
func ParseReferenceSet(data []byte) (*ReferenceSet, error) {
	var rs ReferenceSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("kerchunk: %w: %w", ErrInvalidDocument, err)
	}
	if rs.Refs == nil {
		return nil, fmt.Errorf("kerchunk: %w: document has no refs mapping", ErrInvalidDocument)
	}
	return &rs, nil
}

// Localize rewrites every 3-element reference whose target carries the
// remote host so that it points at the local filesystem instead:
// "https://<host>/path" becomes "/path". Inline scalars, whole-file
// references and unmodelled shapes are left untouched.
func (rs *ReferenceSet) Localize(host string) {
	prefix := host + "/"
	for key, ref := range rs.Refs {
		if ref.IsRange() && strings.Contains(ref.URL, "https://") {
			ref.URL = strings.ReplaceAll(ref.URL, prefix, "/")
			rs.Refs[key] = ref
		}
	}
}
