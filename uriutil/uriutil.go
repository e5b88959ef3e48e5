// Package uriutil rebases blob URIs between the logical namespace a provider
// exposes to callers and the provider's physical addressing scheme.
//
// Rebasing is the single mechanism by which a provider both validates that a
// URI belongs to its namespace and translates it into a storage location:
// strip the old base, re-root the remainder under the new base.
package uriutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidArgument is returned for nil or relative URIs and for URIs that
// are not rooted at the expected base.
//
// Callers should test with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// EnsureTrailingSlash returns a copy of u whose path component ends in "/".
// It is idempotent and never mutates its argument.
func EnsureTrailingSlash(u *url.URL) (*url.URL, error) {
	if err := requireAbsolute("uri", u); err != nil {
		return nil, err
	}

	out := *u
	if !strings.HasSuffix(out.Path, "/") {
		out.Path += "/"
		if out.RawPath != "" {
			out.RawPath += "/"
		}
	}
	return &out, nil
}

// ChangeBase strips oldBase from u and re-roots the remainder under newBase,
// preserving the relative path segments, query and fragment exactly.
//
// It fails with ErrInvalidArgument if any argument is nil or relative, or if
// oldBase is not a prefix of u. Both bases are treated as trailing-slash
// normalized; a base without the trailing slash is normalized first.
func ChangeBase(u, oldBase, newBase *url.URL) (*url.URL, error) {
	if err := requireAbsolute("uri", u); err != nil {
		return nil, err
	}
	ob, err := EnsureTrailingSlash(oldBase)
	if err != nil {
		return nil, fmt.Errorf("old base: %w", err)
	}
	nb, err := EnsureTrailingSlash(newBase)
	if err != nil {
		return nil, fmt.Errorf("new base: %w", err)
	}

	if u.Scheme != ob.Scheme || u.Host != ob.Host || !strings.HasPrefix(u.Path, ob.Path) {
		return nil, fmt.Errorf("%w: uri %q is not rooted at %q", ErrInvalidArgument, u, ob)
	}

	rel := strings.TrimPrefix(u.Path, ob.Path)

	out := *nb
	out.Path = nb.Path + rel
	out.RawPath = ""
	out.RawQuery = u.RawQuery
	out.Fragment = u.Fragment
	out.RawFragment = u.RawFragment
	return &out, nil
}

func requireAbsolute(name string, u *url.URL) error {
	if u == nil {
		return fmt.Errorf("%w: %s must not be nil", ErrInvalidArgument, name)
	}
	if !u.IsAbs() {
		return fmt.Errorf("%w: %s %q must be absolute", ErrInvalidArgument, name, u)
	}
	return nil
}
