package tui

import "testing"

func TestApplyTheme(t *testing.T) {
	ApplyTheme("dark")
	darkText := Text
	darkPrimary := Primary

	ApplyTheme("light")
	if Text == darkText {
		t.Error("light theme should change the text color")
	}
	if HeaderStyle.GetForeground() != Primary {
		t.Error("styles should be rebuilt from the new palette")
	}

	// Unknown names keep the current palette
	lightText := Text
	ApplyTheme("solarized")
	if Text != lightText {
		t.Error("unknown theme should keep the current palette")
	}

	ApplyTheme("dark")
	if Text != darkText || Primary != darkPrimary {
		t.Error("switching back should restore the dark palette")
	}
}
