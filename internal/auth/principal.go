// Package auth turns an authorizer claim bag into a typed principal and
// evaluates role membership.
package auth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"athletehub-api/internal/apperrors"
)

// Roles understood by the gateway
const (
	RoleCoach   = "coach"
	RoleAthlete = "athlete"
)

// Claim keys attached by the Cognito authorizer
const (
	ClaimSubject    = "sub"
	ClaimEmail      = "email"
	ClaimGroups     = "cognito:groups"
	ClaimCustomRole = "custom:role"
)

// groupNames maps a role to its identity-provider group
var groupNames = map[string]string{
	RoleCoach:   "coaches",
	RoleAthlete: "athletes",
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID     string
	Email      string
	Roles      map[string]struct{}
	CustomRole string
}

// ExtractPrincipal builds a principal from a claim bag. A missing or blank
// subject claim is Unauthorized.
func ExtractPrincipal(claims map[string]any) (*Principal, error) {
	if len(claims) == 0 {
		return nil, apperrors.Unauthorized("missing authorization claims")
	}

	sub := strings.TrimSpace(claimString(claims[ClaimSubject]))
	if sub == "" {
		return nil, apperrors.Unauthorized("missing subject claim")
	}

	p := &Principal{
		UserID:     sub,
		Email:      claimString(claims[ClaimEmail]),
		Roles:      make(map[string]struct{}),
		CustomRole: strings.TrimSpace(claimString(claims[ClaimCustomRole])),
	}
	for _, g := range parseGroups(claims[ClaimGroups]) {
		p.Roles[g] = struct{}{}
	}
	return p, nil
}

// HasRole reports whether the principal holds role directly, through its
// identity-provider group, or as its custom role.
func (p *Principal) HasRole(role string) bool {
	if p == nil || role == "" {
		return false
	}
	if _, ok := p.Roles[role]; ok {
		return true
	}
	if group, ok := groupNames[role]; ok {
		if _, ok := p.Roles[group]; ok {
			return true
		}
	}
	return p.CustomRole == role
}

// RoleList returns the principal's groups in sorted order
func (p *Principal) RoleList() []string {
	roles := make([]string, 0, len(p.Roles))
	for r := range p.Roles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// RequireRole returns Forbidden when the principal lacks role. action completes
// the message, e.g. "create challenges".
func RequireRole(p *Principal, role, action string) error {
	if p == nil {
		return apperrors.Unauthorized("missing principal")
	}
	if p.HasRole(role) {
		return nil
	}
	group, ok := groupNames[role]
	if !ok {
		group = role + "s"
	}
	return apperrors.Forbidden(fmt.Sprintf("only %s can %s", group, action))
}

func claimString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// parseGroups accepts the shapes API Gateway and JWT libraries produce for
// cognito:groups: a list, a JSON array string, "[a b]" or "a,b".
func parseGroups(v any) []string {
	var raw []string
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			raw = append(raw, claimString(item))
		}
	case string:
		raw = splitGroupString(val)
	default:
		raw = []string{claimString(val)}
	}

	groups := make([]string, 0, len(raw))
	for _, g := range raw {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func splitGroupString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return list
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		return strings.FieldsFunc(inner, func(r rune) bool {
			return r == ' ' || r == ','
		})
	}

	return strings.Split(s, ",")
}
