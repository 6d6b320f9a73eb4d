// ABOUTME: Build identity constants
// ABOUTME: Reported in logs and the persisted project metadata
package version

const (
	Version      = "0.1.0"
	Product      = "Krono"
	Manufacturer = "Kronoedit"
)
