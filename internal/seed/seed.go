package seed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one default category entry.
type Category struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

type file struct {
	Categories []Category `yaml:"categories"`
}

// LoadCategories reads a YAML file of the form
//
//	categories:
//	  - name: Services
//	    icon: briefcase
//
// Entries without a name are rejected.
func LoadCategories(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCategories(data)
}

func ParseCategories(data []byte) ([]Category, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	for i, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}
		f.Categories[i].Name = strings.TrimSpace(c.Name)
	}
	return f.Categories, nil
}
