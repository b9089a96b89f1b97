package swc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Info describes a morphology file found on disk
type Info struct {
	ID          string `json:"id"`          // File name without extension
	Name        string `json:"name"`        // Display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Path        string `json:"path"`        // Path to the .swc file
}

// InfoGroup represents a group of related morphologies
type InfoGroup struct {
	Name         string `json:"name"`
	Morphologies []Info  `json:"morphologies"`
}

// DefaultGroup collects files that do not declare a group
const DefaultGroup = "Morphologies"

// Discover scans dir for .swc files and reads their header metadata.
// Results are sorted by name.
func Discover(dir string) ([]Info, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.swc"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan morphology directory: %w", err)
	}

	infos := make([]Info, 0, len(files))
	for _, path := range files {
		info, err := ParseHeader(path)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].Path < infos[j].Path
	})
	return infos, nil
}

// ParseHeader extracts metadata from the leading comment block of an SWC file.
// Recognized lines are "# Name: ...", "# Description: ..." and "# Group: ...";
// the file name supplies the fallbacks.
func ParseHeader(path string) (Info, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := Info{
		ID:    id,
		Name:  titleCase(id),
		Group: DefaultGroup,
		Path:  path,
	}

	file, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Header ends at the first data line
		if !strings.HasPrefix(line, "#") {
			break
		}

		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "#")), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			info.Name = value
		case "description":
			info.Description = value
		case "group":
			info.Group = value
		}
	}

	return info, scanner.Err()
}

// GroupInfos groups morphologies by their Group field. The default group
// comes first, the rest follow alphabetically.
func GroupInfos(infos []Info) []InfoGroup {
	groupMap := make(map[string][]Info)
	for _, info := range infos {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	var groupNames []string
	for name := range groupMap {
		if name != DefaultGroup {
			groupNames = append(groupNames, name)
		}
	}
	sort.Strings(groupNames)

	var groups []InfoGroup
	if defaultGroup, exists := groupMap[DefaultGroup]; exists {
		groups = append(groups, InfoGroup{Name: DefaultGroup, Morphologies: defaultGroup})
	}
	for _, name := range groupNames {
		groups = append(groups, InfoGroup{Name: name, Morphologies: groupMap[name]})
	}
	return groups
}

// titleCase converts a filename-style string to title case
// e.g., "pyramidal-cell_01" -> "Pyramidal Cell 01"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
