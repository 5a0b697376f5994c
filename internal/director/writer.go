package director

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// WritePage writes a page to a YAML file
func WritePage(page *Page, path string) error {
	data, err := yaml.Marshal(page)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadPage reads and validates a page from a YAML file
func ReadPage(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	page, err := ParsePage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return page, nil
}

// ParsePage decodes a page. Unknown fields are errors.
func ParsePage(data []byte) (*Page, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var page Page
	if err := dec.Decode(&page); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty page file")
		}
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return &page, nil
}

var contentTypes = map[string]bool{"text": true, "image": true, "pdf": true, "qr": true}

// Validate checks the page structure. Action parameters and coordination
// references are checked when the page is staged.
func (p *Page) Validate() error {
	if p.Version == 0 {
		return fmt.Errorf("missing version")
	}
	if p.Version != CurrentVersion {
		return fmt.Errorf("unsupported page version %d (want %d)", p.Version, CurrentVersion)
	}
	if p.Display.Width <= 0 || p.Display.Height <= 0 {
		return fmt.Errorf("display size must be positive, got %dx%d", p.Display.Width, p.Display.Height)
	}

	seen := make(map[string]bool)
	for i, w := range p.Widgets {
		if w.ID == "" {
			return fmt.Errorf("widget %d: missing id", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("widget %q: duplicate id", w.ID)
		}
		seen[w.ID] = true
		if w.Rect.W <= 0 || w.Rect.H <= 0 {
			return fmt.Errorf("widget %q: rect size must be positive", w.ID)
		}
		if !contentTypes[w.Content.Type] {
			return fmt.Errorf("widget %q: unknown content type %q", w.ID, w.Content.Type)
		}
		if (w.Content.Type == "image" || w.Content.Type == "pdf") && w.Content.Path == "" {
			return fmt.Errorf("widget %q: %s content needs a path", w.ID, w.Content.Type)
		}
		if w.StartTick < 0 {
			return fmt.Errorf("widget %q: negative start_tick", w.ID)
		}
		if a := w.Animation; a != nil {
			if n := a.count(); n != 1 {
				return fmt.Errorf("widget %q: animation needs exactly one of scroll, slide, popup, actions (got %d)", w.ID, n)
			}
		}
	}
	return nil
}

func (a *AnimationSpec) count() int {
	n := 0
	for _, set := range []bool{a.Scroll != nil, a.Slide != nil, a.Popup != nil, len(a.Actions) > 0} {
		if set {
			n++
		}
	}
	return n
}
