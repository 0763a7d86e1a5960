package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wansing/charter/core"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Users []struct {
		Email     string `yaml:"email"`
		Password  string `yaml:"password"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Role      string `yaml:"role"`
	} `yaml:"users"`
	Categories []struct {
		Name                 string `yaml:"name"`
		Parent               string `yaml:"parent"` // name of another seeded category
		Description          string `yaml:"description"`
		RequiredApprovalRole string `yaml:"required_approval_role"`
	} `yaml:"categories"`
	Documents []struct {
		Title    string `yaml:"title"`
		Category string `yaml:"category"`
		Author   string `yaml:"author"` // email of a seeded user
		Public   bool   `yaml:"public"`
		Content  string `yaml:"content"`
	} `yaml:"documents"`
}

// seed populates the database from a yaml file. Users and categories which
// already exist (by email or name) are reused, not duplicated.
func seed(db *core.CoreDB, filename string) error {

	raw, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return err
	}

	for _, u := range file.Users {
		if _, err := db.GetUserByEmail(u.Email); err == nil {
			log.Printf("user %s exists, skipping", u.Email)
			continue
		}
		role, err := core.ParseRole(u.Role)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		user, err := db.InsertUser(u.Email, u.FirstName, u.LastName, role)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		if err := db.SetPassword(user, u.Password); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		log.Printf("created user %s (%s)", u.Email, role)
	}

	var categoryIDs = map[string]int{}
	if existing, err := db.GetAllCategories(); err == nil {
		for _, c := range existing {
			categoryIDs[c.Name()] = c.ID()
		}
	}

	// admin context for category and document creation
	var seeder = seedAdmin{}

	for _, c := range file.Categories {
		if _, ok := categoryIDs[c.Name]; ok {
			log.Printf("category %s exists, skipping", c.Name)
			continue
		}
		role, err := core.ParseRole(c.RequiredApprovalRole)
		if err != nil {
			return fmt.Errorf("category %s: %w", c.Name, err)
		}
		var parentID int
		if c.Parent != "" {
			var ok bool
			parentID, ok = categoryIDs[c.Parent]
			if !ok {
				return fmt.Errorf("category %s: unknown parent %s", c.Name, c.Parent)
			}
		}
		category, err := db.CreateCategory(seeder, c.Name, parentID, c.Description, role)
		if err != nil {
			return fmt.Errorf("category %s: %w", c.Name, err)
		}
		categoryIDs[c.Name] = category.ID()
		log.Printf("created category %s", c.Name)
	}

	for _, d := range file.Documents {
		categoryID, ok := categoryIDs[d.Category]
		if !ok {
			return fmt.Errorf("document %s: unknown category %s", d.Title, d.Category)
		}
		author, err := db.GetUserByEmail(d.Author)
		if err != nil {
			return fmt.Errorf("document %s: author %s: %w", d.Title, d.Author, err)
		}
		if _, err := db.CreateDocument(author, d.Title, categoryID, d.Content, d.Public, nil, ""); err != nil {
			return fmt.Errorf("document %s: %w", d.Title, err)
		}
		log.Printf("created document %s", d.Title)
	}

	return nil
}

// seedAdmin satisfies core.DBUser with admin permissions, for seeding only.
type seedAdmin struct{}

func (seedAdmin) ID() int           { return 0 }
func (seedAdmin) Email() string     { return "" }
func (seedAdmin) FirstName() string { return "" }
func (seedAdmin) LastName() string  { return "" }
func (seedAdmin) Role() core.Role   { return core.Admin }
func (seedAdmin) Active() bool      { return true }
func (seedAdmin) LastLogin() int64  { return 0 }
