package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sha1n/announce-search/internal/domain"
)

// ImportFile is the YAML layout accepted by Import.
//
//	categories:
//	  - id: 1
//	    label: Sport
//	announces:
//	  - id: 10
//	    title: Red bike
//	    category_id: 1
//	    date_creation: 2024-03-01T10:00:00Z
//	    published: true
type ImportFile struct {
	Categories []domain.Category `yaml:"categories"`
	Announces  []ImportAnnounce  `yaml:"announces"`
}

// ImportAnnounce is an announce as written in an import file.
type ImportAnnounce struct {
	ID              int       `yaml:"id"`
	Title           string    `yaml:"title"`
	Description     string    `yaml:"description"`
	CategoryID      int       `yaml:"category_id"`
	Tags            string    `yaml:"tags"`
	DateCreation    time.Time `yaml:"date_creation"`
	Published       bool      `yaml:"published"`
	Suspended       bool      `yaml:"suspended"`
	SuspendedByUser bool      `yaml:"suspended_by_user"`
}

// LoadFile reads an import file from disk.
func LoadFile(path string) (*ImportFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f)
}

// Decode parses an import file.
func Decode(r io.Reader) (*ImportFile, error) {
	var data ImportFile
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		if err == io.EOF {
			return &data, nil
		}
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	return &data, nil
}

// Import upserts the categories and announces of data. It stops at the first
// announce referencing an unknown category.
func Import(ctx context.Context, s *Store, data *ImportFile) (int, error) {
	labels := make(map[int]string, len(data.Categories))
	for _, c := range data.Categories {
		if err := s.SaveCategory(ctx, c); err != nil {
			return 0, err
		}
		labels[c.ID] = c.Label
	}

	imported := 0
	for _, ia := range data.Announces {
		label, ok := labels[ia.CategoryID]
		if !ok {
			return imported, fmt.Errorf("announce %d: unknown category %d", ia.ID, ia.CategoryID)
		}
		a := domain.Announce{
			ID:              ia.ID,
			Title:           ia.Title,
			Description:     ia.Description,
			Category:        domain.Category{ID: ia.CategoryID, Label: label},
			Tags:            ia.Tags,
			DateCreation:    ia.DateCreation,
			Published:       ia.Published,
			Suspended:       ia.Suspended,
			SuspendedByUser: ia.SuspendedByUser,
		}
		if err := s.Save(ctx, a); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}
