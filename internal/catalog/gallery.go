package catalog

// GalleryImage is one thumbnail of a product's image strip.
type GalleryImage struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Active bool   `json:"active"`
}

// Gallery models a product card's image strip: a primary image plus the
// thumbnails, exactly one of which carries the active marker.
type Gallery struct {
	Primary GalleryImage   `json:"primary"`
	Thumbs  []GalleryImage `json:"thumbs"`
}

// NewGallery builds the gallery for a product. The first image is
// primary; products without images fall back to a placeholder.
func NewGallery(name string, images []string) Gallery {
	if len(images) == 0 {
		return Gallery{Primary: GalleryImage{Src: placeholderImage, Alt: name}}
	}

	g := Gallery{
		Primary: GalleryImage{Src: images[0], Alt: name},
		Thumbs:  make([]GalleryImage, len(images)),
	}
	for i, src := range images {
		g.Thumbs[i] = GalleryImage{Src: src, Alt: name, Active: i == 0}
	}
	return g
}

// Promote makes the thumbnail at index the primary image, swapping src
// and alt and moving the active marker to that thumbnail alone. Out of
// range indexes are ignored.
func (g *Gallery) Promote(index int) {
	if index < 0 || index >= len(g.Thumbs) {
		return
	}
	g.Primary.Src = g.Thumbs[index].Src
	g.Primary.Alt = g.Thumbs[index].Alt
	for i := range g.Thumbs {
		g.Thumbs[i].Active = i == index
	}
}

// ScrollState is the thumbnail strip's scroll geometry in pixels.
type ScrollState struct {
	ScrollLeft  float64
	ScrollWidth float64
	ClientWidth float64
	ThumbWidth  float64
	Gap         float64
}

// Step is how far one arrow click moves the strip: two thumbnail widths
// including their gaps.
func (s ScrollState) Step() float64 {
	return (s.ThumbWidth + s.Gap) * 2
}

// HidePrev reports whether the left control should be hidden.
func (s ScrollState) HidePrev() bool {
	if s.ScrollWidth <= s.ClientWidth {
		return true
	}
	return s.ScrollLeft <= 0
}

// HideNext reports whether the right control should be hidden. The one
// pixel slack absorbs subpixel scroll positions.
func (s ScrollState) HideNext() bool {
	if s.ScrollWidth <= s.ClientWidth {
		return true
	}
	return s.ScrollLeft >= s.ScrollWidth-s.ClientWidth-1
}
