package model

import "testing"

func TestFilterElements_NoFilters(t *testing.T) {
	elements := []Element{
		{ID: 1, Role: "btn", Bounds: [4]int{0, 0, 100, 30}},
		{ID: 2, Role: "txt", Bounds: [4]int{0, 30, 100, 20}},
	}
	result := FilterElements(elements, nil, nil)
	if len(result) != 2 {
		t.Errorf("expected 2 elements, got %d", len(result))
	}
}

func TestFilterElements_RoleFilter(t *testing.T) {
	elements := []Element{
		{ID: 1, Role: "btn", Bounds: [4]int{0, 0, 100, 30}},
		{ID: 2, Role: "txt", Bounds: [4]int{0, 30, 100, 20}},
		{ID: 3, Role: "lnk", Bounds: [4]int{0, 50, 100, 20}},
	}
	result := FilterElements(elements, []string{"btn", "lnk"}, nil)
	if len(result) != 2 {
		t.Errorf("expected 2 elements, got %d", len(result))
	}
	if result[0].Role != "btn" || result[1].Role != "lnk" {
		t.Errorf("unexpected roles: %s, %s", result[0].Role, result[1].Role)
	}
}

func TestFilterElements_BBoxFilter(t *testing.T) {
	elements := []Element{
		{ID: 1, Role: "btn", Bounds: [4]int{10, 10, 50, 30}},   // inside
		{ID: 2, Role: "btn", Bounds: [4]int{200, 200, 50, 30}}, // outside
		{ID: 3, Role: "btn", Bounds: [4]int{90, 90, 50, 30}},   // overlaps
	}
	bbox := [4]int{0, 0, 100, 100}
	result := FilterElements(elements, nil, &bbox)
	if len(result) != 2 {
		t.Errorf("expected 2 elements (inside + overlapping), got %d", len(result))
	}
}

func TestFilterElements_RecursiveChildren(t *testing.T) {
	elements := []Element{
		{
			ID: 1, Role: "generic", Bounds: [4]int{0, 0, 200, 200},
			Children: []Element{
				{ID: 2, Role: "btn", Bounds: [4]int{10, 10, 50, 30}},
				{ID: 3, Role: "txt", Bounds: [4]int{10, 50, 100, 20}},
			},
		},
	}
	result := FilterElements(elements, []string{"generic", "btn"}, nil)
	if len(result) != 1 {
		t.Fatalf("expected 1 top-level element, got %d", len(result))
	}
	if len(result[0].Children) != 1 {
		t.Errorf("expected 1 child after filtering, got %d", len(result[0].Children))
	}
	if result[0].Children[0].Role != "btn" {
		t.Errorf("expected child role btn, got %s", result[0].Children[0].Role)
	}
}

func TestFilterByText_MatchesNameValueDescription(t *testing.T) {
	elements := []Element{
		{ID: 1, Role: "btn", Name: "Sign in"},
		{ID: 2, Role: "input", Value: "user@example.com"},
		{ID: 3, Role: "img", Description: "Company logo"},
		{ID: 4, Role: "txt", Name: "Unrelated"},
	}
	for _, tt := range []struct {
		text string
		want int
	}{
		{"sign", 1},
		{"EXAMPLE.COM", 2},
		{"logo", 3},
		{"nothing-matches", 0},
	} {
		result := FilterByText(elements, tt.text)
		if tt.want == 0 {
			if len(result) != 0 {
				t.Errorf("text %q: expected no matches, got %d", tt.text, len(result))
			}
			continue
		}
		if len(result) != 1 || result[0].ID != tt.want {
			t.Errorf("text %q: expected element %d, got %+v", tt.text, tt.want, result)
		}
	}
}

func TestPruneEmptyGeneric_PromotesChildren(t *testing.T) {
	elements := []Element{
		{
			ID: 1, Role: "generic",
			Children: []Element{
				{ID: 2, Role: "generic", Children: []Element{
					{ID: 3, Role: "btn", Name: "OK"},
				}},
				{ID: 4, Role: "generic", Name: "named container"},
			},
		},
	}
	result := PruneEmptyGeneric(elements)
	if len(result) != 2 {
		t.Fatalf("expected 2 surviving elements, got %d", len(result))
	}
	if result[0].ID != 3 || result[1].ID != 4 {
		t.Errorf("expected button then named container, got %+v", result)
	}
}

func TestBoundsIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b [4]int
		want bool
	}{
		{"overlapping", [4]int{0, 0, 100, 100}, [4]int{50, 50, 100, 100}, true},
		{"adjacent_no_overlap", [4]int{0, 0, 100, 100}, [4]int{100, 0, 100, 100}, false},
		{"contained", [4]int{0, 0, 200, 200}, [4]int{50, 50, 10, 10}, true},
		{"no_overlap", [4]int{0, 0, 10, 10}, [4]int{20, 20, 10, 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := boundsIntersect(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("boundsIntersect(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
