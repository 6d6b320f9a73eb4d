// ABOUTME: Tests for version constants
// ABOUTME: Ensures build identity is properly defined
package version

import "testing"

func TestVersionDefined(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if len(Version) > 100 {
		t.Error("Version string is unreasonably long")
	}
}

func TestProductDefined(t *testing.T) {
	if Product == "" {
		t.Error("Product should not be empty")
	}
}

func TestManufacturerDefined(t *testing.T) {
	if Manufacturer == "" {
		t.Error("Manufacturer should not be empty")
	}
}

func TestVersionNotPlaceholder(t *testing.T) {
	placeholders := []string{"TODO", "FIXME", "XXX", "placeholder"}

	for _, placeholder := range placeholders {
		if Version == placeholder {
			t.Errorf("Version should not be placeholder value: %s", placeholder)
		}
		if Product == placeholder {
			t.Errorf("Product should not be placeholder value: %s", placeholder)
		}
	}
}
