package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// User is one entry of the workspace user table.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Profile struct {
		RealName string `json:"real_name"`
	} `json:"profile"`
}

// Conversation is a channel, group or multi-party conversation whose day
// files live under its name in the export directory.
type Conversation struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

// DM is a direct-message conversation; its day files live under its id.
type DM struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// Workspace holds the identity tables of an unpacked export.
type Workspace struct {
	SourceDir string

	Users    []User
	Channels []Conversation
	Groups   []Conversation
	MPIMs    []Conversation
	DMs      []DM

	resolver *Resolver
}

// LoadWorkspace reads the membership and identity tables from sourceDir.
func LoadWorkspace(sourceDir string) (*Workspace, error) {
	ws := &Workspace{SourceDir: sourceDir}

	if err := readJSONFile(filepath.Join(sourceDir, "users.json"), &ws.Users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if err := readJSONFile(filepath.Join(sourceDir, "channels.json"), &ws.Channels); err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	if err := readJSONFile(filepath.Join(sourceDir, "groups.json"), &ws.Groups); err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	if err := readJSONFile(filepath.Join(sourceDir, "mpims.json"), &ws.MPIMs); err != nil {
		return nil, fmt.Errorf("load mpims: %w", err)
	}
	if err := readJSONFile(filepath.Join(sourceDir, "dms.json"), &ws.DMs); err != nil {
		return nil, fmt.Errorf("load dms: %w", err)
	}

	ws.resolver = NewResolver(ws.Users)
	return ws, nil
}

// AllChannels returns channels, groups and multi-party conversations merged,
// in table order.
func (w *Workspace) AllChannels() []Conversation {
	merged := make([]Conversation, 0, len(w.Channels)+len(w.MPIMs)+len(w.Groups))
	merged = append(merged, w.Channels...)
	merged = append(merged, w.MPIMs...)
	merged = append(merged, w.Groups...)
	return merged
}

// Resolver returns the user lookup built from the user table.
func (w *Workspace) Resolver() *Resolver {
	return w.resolver
}

// DMDirName computes the display directory name for a DM from its
// participants' short names.
func (w *Workspace) DMDirName(dm DM) string {
	parts := make([]string, 0, len(dm.Members))
	for _, member := range dm.Members {
		if name, ok := w.resolver.ShortName(member); ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, member)
		}
	}
	return "dm_" + strings.Join(parts, "-")
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// Resolver maps user ids to display names. Lookups degrade, never fail.
type Resolver struct {
	realNames  map[string]string
	shortNames map[string]string
}

// NewResolver builds a Resolver from the user table.
func NewResolver(users []User) *Resolver {
	r := &Resolver{
		realNames:  make(map[string]string, len(users)),
		shortNames: make(map[string]string, len(users)),
	}
	for _, user := range users {
		if user.ID == "" {
			continue
		}
		if user.Profile.RealName != "" {
			r.realNames[user.ID] = user.Profile.RealName
		}
		if user.Name != "" {
			r.shortNames[user.ID] = user.Name
		}
	}
	return r
}

// DisplayName resolves a user id to a real name.
func (r *Resolver) DisplayName(id string) (string, bool) {
	name, ok := r.realNames[id]
	return name, ok
}

// ShortName resolves a user id to a handle-style short name.
func (r *Resolver) ShortName(id string) (string, bool) {
	name, ok := r.shortNames[id]
	return name, ok
}
