package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultProjectName names the primary dataset rooted at the storage root.
const DefaultProjectName = "default"

// AllProjects is the search scope that spans every project and the default one.
const AllProjects = "all"

// Project is an isolated named dataset with its own storage root and database.
type Project struct {
	// Name is the project name. The primary dataset is DefaultProjectName.
	Name string `json:"name"`

	// Path is the dataset root directory.
	Path string `json:"path"`

	// CreatedAt is the directory creation time as reported by the filesystem.
	CreatedAt time.Time `json:"created_at"`
}

// IsDefault returns true if this is the primary dataset.
func (p Project) IsDefault() bool {
	return p.Name == DefaultProjectName
}

// NormaliseProjectName maps the aliases of the primary dataset ("", "../",
// "default") onto DefaultProjectName and rejects names that could escape the
// projects directory.
func NormaliseProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "", "../", "..", DefaultProjectName:
		return DefaultProjectName, nil
	case AllProjects:
		return "", fmt.Errorf("%w: %q is a reserved project name", ErrInvalidInput, name)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid project name %q", ErrInvalidInput, name)
	}
	return name, nil
}
