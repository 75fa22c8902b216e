package permissions

import (
	"context"
	"errors"
	"strings"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const ResourceListingElements = "listing_elements"

const (
	ElementsRead   = "listing_elements:read"
	ElementsCreate = "listing_elements:create"
	ElementsUpdate = "listing_elements:update"
	ElementsDelete = "listing_elements:delete"
)

var ErrPermissionDenied = errors.New("permissions: denied")

type Error struct {
	Permission string
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Permission) == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// Join builds a permission token from resource and action.
func Join(resource string, action Action) string {
	res := normalize(resource)
	act := normalize(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool {
	return fn(permission)
}

// Set grants exact tokens, "resource:*" wildcards and "*".
type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		if normalized := normalize(perm); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	normalized := normalize(permission)
	if len(s) == 0 || normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return true
	}
	if resource, _, found := strings.Cut(normalized, ":"); found {
		if _, ok := s[resource+":*"]; ok {
			return true
		}
	}
	_, ok := s["*"]
	return ok
}

// Permissioner is implemented by host session types.
type Permissioner interface {
	HasPermission(permission string) bool
}

type contextKey string

const checkerKey contextKey = "listing.permissions.checker"

// WithChecker stores a permission checker on the context.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey, checker)
}

// WithPermissions stores a static permission set on the context.
func WithPermissions(ctx context.Context, perms ...string) context.Context {
	if ctx == nil || len(perms) == 0 {
		return ctx
	}
	return WithChecker(ctx, NewSet(perms...))
}

// WithPermissioner stores a host session on the context.
func WithPermissioner(ctx context.Context, p Permissioner) context.Context {
	if p == nil {
		return ctx
	}
	return WithChecker(ctx, CheckerFunc(p.HasPermission))
}

// CheckerFromContext returns the configured permission checker if available.
func CheckerFromContext(ctx context.Context) Checker {
	if ctx == nil {
		return nil
	}
	checker, _ := ctx.Value(checkerKey).(Checker)
	return checker
}

// Require enforces a permission when a checker is available on the context.
// Requests without a checker are allowed.
func Require(ctx context.Context, permission string) error {
	normalized := normalize(permission)
	if normalized == "" {
		return nil
	}
	checker := CheckerFromContext(ctx)
	if checker == nil || checker.Allowed(normalized) {
		return nil
	}
	return Error{Permission: normalized}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
