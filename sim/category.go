package sim

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Category is the matching tag shared by drivers and parking spaces.
// A driver may only occupy a space of the same category.
type Category int

const (
	General Category = iota
	Electric
	ReducedMobility

	numCategories = 3
)

var categoryNames = [numCategories]string{
	General:         "general",
	Electric:        "electric",
	ReducedMobility: "reduced-mobility",
}

// Categories returns every category in a fixed order.
// Iteration over categories always goes through this slice so that
// draws and reports stay deterministic.
func Categories() []Category {
	return []Category{General, Electric, ReducedMobility}
}

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

func (c Category) valid() bool {
	return c >= 0 && c < numCategories
}

// ParseCategory maps a category name back to its Category.
func ParseCategory(name string) (Category, error) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// MarshalYAML writes the category by name.
func (c Category) MarshalYAML() (interface{}, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return c.String(), nil
}

// UnmarshalYAML reads a category by name.
func (c *Category) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseCategory(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText lets categories serve as JSON object keys and CSV fields.
func (c Category) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
