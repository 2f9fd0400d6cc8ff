package model

// RoleMap maps Chromium accessibility role values to compact role codes.
var RoleMap = map[string]string{
	"button":           "btn",
	"link":             "lnk",
	"StaticText":       "txt",
	"staticText":       "txt",
	"paragraph":        "txt",
	"heading":          "heading",
	"textbox":          "input",
	"textField":        "input",
	"searchbox":        "input",
	"textFieldWithComboBox": "input",
	"checkbox":         "chk",
	"switch":           "toggle",
	"radio":            "radio",
	"combobox":         "combo",
	"listbox":          "list",
	"list":             "list",
	"listitem":         "row",
	"menu":             "menu",
	"menubar":          "menu",
	"menuitem":         "menuitem",
	"tab":              "tab",
	"tablist":          "tab",
	"table":            "table",
	"row":              "row",
	"cell":             "cell",
	"image":            "img",
	"slider":           "slider",
	"dialog":           "dialog",
	"alertdialog":      "dialog",
	"generic":          "generic",
	"GenericContainer": "generic",
	"genericContainer": "generic",
	"group":            "generic",
	"none":             "generic",
	"Iframe":           "frame",
	"iframe":           "frame",
	"IframePresentational": "frame",
	"RootWebArea":      "web",
	"WebArea":          "web",
}

// interactiveRoles are role codes that directly accept user input. The
// resolver prefers these over generic containers when several nodes carry
// the same text.
var interactiveRoles = map[string]bool{
	"btn":      true,
	"lnk":      true,
	"input":    true,
	"chk":      true,
	"toggle":   true,
	"radio":    true,
	"combo":    true,
	"menuitem": true,
	"tab":      true,
	"slider":   true,
}

// MetaRoles maps meta-role names to the concrete roles they expand to.
var MetaRoles = map[string][]string{
	"interactive": {"btn", "lnk", "input", "chk", "toggle", "radio", "combo", "menuitem", "tab", "slider"},
}

// IsInteractive reports whether a role code is an interactive control.
func IsInteractive(role string) bool {
	return interactiveRoles[role]
}

// ExpandRoles expands any meta-roles in the given list to their concrete
// roles. Non-meta roles are passed through unchanged. Duplicates are removed.
func ExpandRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	var expanded []string
	for _, r := range roles {
		if concrete, ok := MetaRoles[r]; ok {
			for _, c := range concrete {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			expanded = append(expanded, r)
		}
	}
	return expanded
}

// MapRole converts a raw accessibility role to a compact code. Unknown roles
// pass through unchanged so nothing is silently lost.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return axRole
}
