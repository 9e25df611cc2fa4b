package models

import "regexp"

const IDHashLength = 12

var idRegex = regexp.MustCompile(`^([a-z]{2})-[0-9a-z]{12}$`)

// ValidateID checks the shape and kind prefix of an identifier.
func ValidateID(kind Kind, id string) error {
	match := idRegex.FindStringSubmatch(id)
	if match == nil {
		return Invalidf("malformed %s id %q", kind, id)
	}
	if Kind(match[1]) != kind {
		return Invalidf("id %q is not a %s id", id, kind)
	}
	return nil
}

// ValidateIDs checks every id in ids.
func ValidateIDs(kind Kind, ids []string) error {
	for _, id := range ids {
		if err := ValidateID(kind, id); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOptionalID accepts an empty reference.
func ValidateOptionalID(kind Kind, id string) error {
	if id == "" {
		return nil
	}
	return ValidateID(kind, id)
}
