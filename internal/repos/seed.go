package repos

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type menuFile struct {
	Products []menuEntry `yaml:"products"`
}

type menuEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Price        string `yaml:"price"`
	ImageFile    string `yaml:"imageFile"`
	Customizable bool   `yaml:"customizable"`
	Category     string `yaml:"category"`
}

// menuDoc is the stored shape of a catalog entry; price is kept as a string.
type menuDoc struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	ImageFile    string `json:"imageFile,omitempty"`
	Customizable bool   `json:"customizable"`
	Category     string `json:"category,omitempty"`
}

// SeedMenu loads the YAML menu at path into the product collection when the
// collection is empty. A missing file is not an error.
func SeedMenu(ctx context.Context, docs DocStore, path string) (int, error) {
	n, err := docs.Count(ctx, CollectionProducts)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("[seed] no menu file at %s, catalog left empty", path)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var mf menuFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	log.Printf("[seed] inserting %d menu products", len(mf.Products))
	added := 0
	for _, e := range mf.Products {
		price, err := decimal.NewFromString(e.Price)
		if err != nil || price.IsNegative() {
			log.Printf("[seed] skipping %q: bad price %q", e.Name, e.Price)
			continue
		}
		doc := menuDoc{
			ID:           e.ID,
			Name:         e.Name,
			Price:        price.StringFixed(2),
			ImageFile:    e.ImageFile,
			Customizable: e.Customizable,
			Category:     e.Category,
		}
		key, err := docs.Push(ctx, CollectionProducts, doc)
		if err != nil {
			return added, err
		}
		if doc.ID == "" {
			doc.ID = key
			if err := docs.Put(ctx, CollectionProducts, key, doc); err != nil {
				return added, err
			}
		}
		added++
	}
	return added, nil
}
