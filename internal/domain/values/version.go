package values

import (
	"github.com/Masterminds/semver/v3"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

// BumpType selects which component of a semantic version is incremented when
// a new policy version supersedes the current one.
type BumpType string

const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
)

// IsValid checks the bump type against the closed set
func (b BumpType) IsValid() bool {
	switch b {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	default:
		return false
	}
}

// Version is a semantic version (MAJOR.MINOR.PATCH) for a policy lineage.
type Version struct {
	v *semver.Version
}

// InitialVersion is where every (eventType, framework) lineage starts.
func InitialVersion() Version {
	return Version{v: semver.MustParse("1.0.0")}
}

// NewVersion parses a MAJOR.MINOR.PATCH string
func NewVersion(raw string) (Version, error) {
	if raw == "" {
		return Version{}, errors.NewValidationError("EMPTY_VERSION",
			"version string cannot be empty")
	}

	parsed, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, errors.NewValidationError("INVALID_VERSION",
			"version must be a MAJOR.MINOR.PATCH semantic version").WithCause(err)
	}

	return Version{v: parsed}, nil
}

// MustNewVersion parses a version and panics on error (for tests)
func MustNewVersion(raw string) Version {
	v, err := NewVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Bump returns the next version for the given bump type.
func (ver Version) Bump(bump BumpType) (Version, error) {
	if ver.v == nil {
		return Version{}, errors.NewValidationError("UNSET_VERSION",
			"cannot bump an unset version")
	}

	var next semver.Version
	switch bump {
	case BumpMajor:
		next = ver.v.IncMajor()
	case BumpMinor:
		next = ver.v.IncMinor()
	case BumpPatch:
		next = ver.v.IncPatch()
	default:
		return Version{}, errors.NewValidationError("INVALID_BUMP_TYPE",
			"bump type must be one of major, minor, patch")
	}

	return Version{v: &next}, nil
}

// String returns the MAJOR.MINOR.PATCH form
func (ver Version) String() string {
	if ver.v == nil {
		return ""
	}
	return ver.v.String()
}

// IsZero checks if the version is unset
func (ver Version) IsZero() bool {
	return ver.v == nil
}

// Equal checks if two versions are the same
func (ver Version) Equal(other Version) bool {
	if ver.v == nil || other.v == nil {
		return ver.v == other.v
	}
	return ver.v.Equal(other.v)
}

// LessThan orders versions by semantic version precedence
func (ver Version) LessThan(other Version) bool {
	if ver.v == nil || other.v == nil {
		return other.v != nil
	}
	return ver.v.LessThan(other.v)
}

// MarshalText implements encoding.TextMarshaler
func (ver Version) MarshalText() ([]byte, error) {
	return []byte(ver.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (ver *Version) UnmarshalText(text []byte) error {
	parsed, err := NewVersion(string(text))
	if err != nil {
		return err
	}
	*ver = parsed
	return nil
}
