// ABOUTME: Version information for the codec tools
// ABOUTME: Product, manufacturer and version strings shown by the CLIs
package version

const (
	// Version is the release version of the glc tools
	Version = "0.1.0"

	// Product is the product name
	Product = "glc"

	// Manufacturer is the organization publishing the tools
	Manufacturer = "Resonate Protocol"
)
