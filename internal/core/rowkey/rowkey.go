package rowkey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedKey is wrapped by every DecodeError.
var ErrMalformedKey = errors.New("malformed row key")

// Key is the identity triple of a project row.
type Key struct {
	Project   string
	SubEntity string
	Status    string
}

// DecodeError reports a row key text that does not match the encoding.
type DecodeError struct {
	Text   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot parse row key %q: %s", e.Text, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformedKey
}

// <project>_<subEntity> (<status>), split at the last underscore.
var keyPattern = regexp.MustCompile(`(?s)^(.+)_([^_()]+) \(([^()]*)\)$`)

// Encode renders the key as "Project_SubEntity (Status)".
func Encode(k Key) string {
	return k.Project + "_" + k.SubEntity + " (" + k.Status + ")"
}

// String is the encoded form.
func (k Key) String() string {
	return Encode(k)
}

// Decode parses text produced by Encode.
func Decode(text string) (Key, error) {
	if !strings.Contains(text, "_") {
		return Key{}, &DecodeError{Text: text, Reason: "missing '_' separator"}
	}
	if !strings.HasSuffix(text, ")") || !strings.Contains(text, " (") {
		return Key{}, &DecodeError{Text: text, Reason: "missing trailing status in parentheses"}
	}

	m := keyPattern.FindStringSubmatch(text)
	if m == nil {
		return Key{}, &DecodeError{Text: text, Reason: "does not match Project_SubEntity (Status)"}
	}

	return Key{Project: m[1], SubEntity: m[2], Status: m[3]}, nil
}

// Validate reports identity values that would not survive an Encode/Decode
// round trip.
func (k Key) Validate() error {
	switch {
	case k.Project == "":
		return errors.New("project is empty")
	case k.SubEntity == "":
		return errors.New("sub-entity is empty")
	case strings.ContainsAny(k.SubEntity, "_()"):
		return fmt.Errorf("sub-entity %q contains one of '_', '(' or ')'", k.SubEntity)
	case strings.ContainsAny(k.Status, "()"):
		return fmt.Errorf("status %q contains parentheses", k.Status)
	}
	return nil
}
