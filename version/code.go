package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// groupWidth is the number of decimal digits each component occupies in a build number or
	// version code.
	groupWidth = 3
	// codeGroups is the number of components encoded in a version code.
	codeGroups = 3
	// CodeWidth is the fixed width of a padded version code.
	CodeWidth = groupWidth * codeGroups

	maxGroupValue = 999
)

var (
	// ErrInvalidCode is returned for version codes that are not at most CodeWidth decimal digits.
	ErrInvalidCode = errors.New("invalid version code")
	// ErrBuildNumberOverflow is returned when a version cannot be encoded without breaking the
	// ordering of build numbers.
	ErrBuildNumberOverflow = errors.New("version does not fit the build number encoding")
)

// DecodeVersionCode converts a store version code back into a dotted version. The code is
// left-padded to CodeWidth digits, split into 3-digit groups and each group is read as a decimal
// integer, e.g. "1002003" -> "001002003" -> 1.2.3 and "000001002" -> 0.1.2.
func DecodeVersionCode(code string) (Version, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > CodeWidth || !isDigits(code) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	padded := strings.Repeat("0", CodeWidth-len(code)) + code
	components := make([]uint64, 0, codeGroups)
	for i := 0; i < CodeWidth; i += groupWidth {
		n, err := strconv.ParseUint(padded[i:i+groupWidth], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %w", ErrInvalidCode, code, err)
		}
		components = append(components, n)
	}

	return Version{components: components}, nil
}

// EncodeVersionCode is the inverse of DecodeVersionCode: it renders the first three components as
// 3-digit groups, yielding a CodeWidth digit string.
func EncodeVersionCode(v Version) (string, error) {
	groups, err := v.groups()
	if err != nil {
		return "", err
	}

	return strings.Join(groups, ""), nil
}

// BuildNumber derives the monotonic build number for v: each of the major, minor and patch
// components is zero-padded to three digits and the result is read as an integer, e.g.
// 1.2.3 -> "001002003" -> 1002003.
//
// Versions with a component above 999 or with non-zero components after the patch cannot be
// encoded without breaking the ordering and return ErrBuildNumberOverflow.
func (v Version) BuildNumber() (int64, error) {
	groups, err := v.groups()
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(strings.Join(groups, ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBuildNumberOverflow, v, err)
	}

	return n, nil
}

func (v Version) groups() ([]string, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: invalid version", ErrBuildNumberOverflow)
	}
	for i := codeGroups; i < len(v.components); i++ {
		if v.components[i] != 0 {
			return nil, fmt.Errorf("%w: %s has more than %d significant components",
				ErrBuildNumberOverflow, v, codeGroups)
		}
	}

	groups := make([]string, codeGroups)
	for i := range codeGroups {
		c := v.Component(i)
		if c > maxGroupValue {
			return nil, fmt.Errorf("%w: component %d of %s exceeds %d", ErrBuildNumberOverflow, c, v, maxGroupValue)
		}
		groups[i] = fmt.Sprintf("%0*d", groupWidth, c)
	}

	return groups, nil
}
