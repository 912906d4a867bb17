package domain

import "testing"

func TestRestaurant_MenuPath(t *testing.T) {
	r := &Restaurant{Slug: "joes-diner"}
	if got := r.MenuPath(); got != "/joes-diner-menu/" {
		t.Errorf("MenuPath() = %q, want %q", got, "/joes-diner-menu/")
	}
}
