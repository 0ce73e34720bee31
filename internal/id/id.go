// Package id generates prefixed unique identifiers for domain records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Well-known prefixes used across the client core.
const (
	PrefixUser    = "usr"
	PrefixPoem    = "poem"
	PrefixComment = "cmt"
	PrefixLike    = "like"
	PrefixFollow  = "flw"
	PrefixSession = "ses"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "poem-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when failure should crash the program (e.g., during seeding).
func MustGenerate(prefix string) string {
	nid, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return nid
}
