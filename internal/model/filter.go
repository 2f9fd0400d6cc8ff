package model

import "strings"

// FilterElements applies filters to a slice of elements, returning only
// matching elements. It filters by roles and bounding box. Depth filtering
// should happen during traversal, not here.
func FilterElements(elements []Element, roles []string, bbox *[4]int) []Element {
	if len(roles) == 0 && bbox == nil {
		return elements
	}

	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	var result []Element
	for _, el := range elements {
		// Recursively filter children first
		var filteredChildren []Element
		if len(el.Children) > 0 {
			filteredChildren = FilterElements(el.Children, roles, bbox)
		}

		roleMatch := len(roleSet) == 0 || roleSet[el.Role]
		bboxMatch := bbox == nil || boundsIntersect(el.Bounds, *bbox)

		if roleMatch && bboxMatch {
			// Element matches filters: include it with filtered children
			filtered := el
			filtered.Children = filteredChildren
			result = append(result, filtered)
		} else if len(filteredChildren) > 0 {
			// Element doesn't match, but has matching descendants: include them directly
			result = append(result, filteredChildren...)
		}
	}
	return result
}

// FilterByText filters elements to only those whose name, value, or
// description contains the given text (case-insensitive). It recursively
// searches children and returns matching elements with their matching
// children preserved. Parent elements are included if any descendant matches.
func FilterByText(elements []Element, text string) []Element {
	if text == "" {
		return elements
	}
	textLower := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		matched := textMatchesElement(el, textLower)
		childMatches := FilterByText(el.Children, text)

		if matched || len(childMatches) > 0 {
			filtered := el
			filtered.Children = childMatches
			result = append(result, filtered)
		}
	}
	return result
}

func textMatchesElement(el Element, textLower string) bool {
	return strings.Contains(strings.ToLower(el.Name), textLower) ||
		strings.Contains(strings.ToLower(el.Value), textLower) ||
		strings.Contains(strings.ToLower(el.Description), textLower)
}

// FilterByFocused filters elements to only those that have Focused == true,
// preserving the ancestry path down to each focused element.
func FilterByFocused(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		childMatches := FilterByFocused(el.Children)

		if el.Focused || len(childMatches) > 0 {
			filtered := el
			filtered.Children = childMatches
			result = append(result, filtered)
		}
	}
	return result
}

// isEmptyGeneric returns true if the element is an anonymous structural
// container carrying no text of its own.
func isEmptyGeneric(el Element) bool {
	return el.Role == "generic" && el.Name == "" && el.Value == "" && el.Description == ""
}

// PruneEmptyGeneric removes anonymous generic container nodes from a tree.
// Children of removed nodes are promoted to the parent. Web accessibility
// trees are dominated by these wrappers; pruning them dramatically reduces
// output size without losing any actionable node.
func PruneEmptyGeneric(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		prunedChildren := PruneEmptyGeneric(el.Children)

		if isEmptyGeneric(el) {
			result = append(result, prunedChildren...)
		} else {
			pruned := el
			pruned.Children = prunedChildren
			result = append(result, pruned)
		}
	}
	return result
}

// boundsIntersect checks if two [x, y, width, height] rectangles overlap.
func boundsIntersect(a, b [4]int) bool {
	ax1, ay1, ax2, ay2 := a[0], a[1], a[0]+a[2], a[1]+a[3]
	bx1, by1, bx2, by2 := b[0], b[1], b[0]+b[2], b[1]+b[3]
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}
