// Package urls holds the project and documentation links shown by the
// commands and the terminal form, so they can be updated in one place.
//
// Usage:
//
//	import "github.com/Ahlyab/flood-prediction/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.Troubleshooting)
package urls
