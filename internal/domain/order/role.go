package order

import "strings"

// FallbackRole is the blend role used for empty or catch-all groups.
const FallbackRole = "OTR"

// blendRoles maps catalog groups to the blend role vocabulary of the intake
// system.
var blendRoles = map[string]string{
	"FRITOS":   "FRI",
	"BEBIDAS":  "BEB",
	"POSTRES":  "POS",
	"SANDWICH": "SDW",
	"PREMIUM":  FallbackRole,
}

// NormalizeRole maps a sub-item catalog group to a blend role code. Groups
// missing from the table fall back to their first three characters,
// upper-cased.
// TODO: replace the three-character fallback once the product owners publish
// the full group table.
func NormalizeRole(group string) string {
	g := strings.ToUpper(strings.TrimSpace(group))
	if g == "" {
		return FallbackRole
	}
	if role, ok := blendRoles[g]; ok {
		return role
	}
	if r := []rune(g); len(r) > 3 {
		return string(r[:3])
	}
	return g
}
