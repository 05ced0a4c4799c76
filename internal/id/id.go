// Package id provides typed, prefixed unique identifiers for storage artifacts.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each identifier kind. The prefix makes an ID self-describing
// in logs and on disk, and lets Valid reject cross-kind values at runtime
// boundaries where the type system can't help (parsed paths).
const (
	userPrefix       = "usr"
	sourcePrefix     = "src"
	generationPrefix = "gen"
	filePrefix       = "file"
)

// UserID identifies an account owning stored artifacts.
type UserID string

// SourceImageID identifies an original uploaded photograph.
type SourceImageID string

// GenerationID identifies one AI-staged variant of a source image.
type GenerationID string

// FileID identifies a file in the deprecated flat layout.
type FileID string

func (id UserID) String() string        { return string(id) }
func (id SourceImageID) String() string { return string(id) }
func (id GenerationID) String() string  { return string(id) }
func (id FileID) String() string        { return string(id) }

// NewUserID generates a fresh user identifier.
func NewUserID() (UserID, error) {
	s, err := Generate(userPrefix)
	return UserID(s), err
}

// NewSourceImageID generates a fresh source image identifier.
func NewSourceImageID() (SourceImageID, error) {
	s, err := Generate(sourcePrefix)
	return SourceImageID(s), err
}

// NewGenerationID generates a fresh generation identifier.
func NewGenerationID() (GenerationID, error) {
	s, err := Generate(generationPrefix)
	return GenerationID(s), err
}

// NewFileID generates a fresh flat-layout file identifier.
func NewFileID() (FileID, error) {
	s, err := Generate(filePrefix)
	return FileID(s), err
}

// Valid reports whether the ID is non-empty and uses the path-safe alphabet.
func (id UserID) Valid() bool        { return validID(string(id)) }
func (id SourceImageID) Valid() bool { return validID(string(id)) }
func (id GenerationID) Valid() bool  { return validID(string(id)) }
func (id FileID) Valid() bool        { return validID(string(id)) }

// validID accepts NanoID's URL-safe alphabet plus the prefix separator.
// IDs become path segments, so anything outside this set is rejected.
func validID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	// Reserved directory names can never be identifiers.
	return s != "sources" && s != "generations"
}

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "src-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
