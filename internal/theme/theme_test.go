package theme

import (
	"reflect"
	"testing"
)

func TestThemes_Registered(t *testing.T) {
	want := []string{"default", "light", "monokai"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for name, th := range Themes {
		if th.Name != name {
			t.Errorf("theme registered as %q has Name=%q", name, th.Name)
		}
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"light", "light"},
		{"monokai", "monokai"},
		{"", "default"},
		{"nonexistent", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Get(tt.in).Name; got != tt.want {
				t.Errorf("Get(%q).Name = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCurrent_CanBeSwapped(t *testing.T) {
	original := Current
	defer func() { Current = original }()

	if Current.Name != "default" {
		t.Fatalf("Current.Name = %q at init", Current.Name)
	}
	Current = Get("monokai")
	if Current.Name != "monokai" {
		t.Errorf("Current.Name = %q after swap", Current.Name)
	}
}

func TestNew_DerivesFromPalette(t *testing.T) {
	th := New("custom", lightPalette)

	if got := th.GridNull.GetForeground(); got != lightPalette.Muted {
		t.Errorf("GridNull foreground = %v, want %v", got, lightPalette.Muted)
	}
	if got := th.StatusBarError.GetBackground(); got != lightPalette.Error {
		t.Errorf("StatusBarError background = %v, want %v", got, lightPalette.Error)
	}
	if got := th.SidebarSelected.GetBackground(); got != lightPalette.Selection {
		t.Errorf("SidebarSelected background = %v, want %v", got, lightPalette.Selection)
	}
}

func TestTheme_StylesRender(t *testing.T) {
	for name, th := range Themes {
		t.Run(name, func(t *testing.T) {
			pairs := []struct {
				label string
				out   string
			}{
				{"SQLKeyword", th.SQLKeyword.Render("SELECT")},
				{"GridHeader", th.GridHeader.Render("id")},
				{"GridNull", th.GridNull.Render("NULL")},
				{"TabActive", th.TabActive.Render("Rows")},
				{"StatusBarError", th.StatusBarError.Render("err")},
				{"DialogBorder", th.DialogBorder.Render("dlg")},
				{"SidebarSelected", th.SidebarSelected.Render("agents")},
				{"AutocompleteSelected", th.AutocompleteSelected.Render("sel")},
			}
			for _, p := range pairs {
				if p.out == "" {
					t.Errorf("%s rendered empty", p.label)
				}
			}
		})
	}
}
