// assets/embed.go
//
// Embedded static data shipped with the binary.

package assets

import _ "embed"

//go:embed albums.yaml
var albumsYAML []byte

// AlbumsYAML returns the bundled album catalog.
func AlbumsYAML() []byte {
	return albumsYAML
}
