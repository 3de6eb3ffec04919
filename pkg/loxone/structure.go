package loxone

import (
	"fmt"
	"sort"
)

// Structure is the typed subset of the LoxAPP3.json structure file.
type Structure struct {
	LastModified string              `mapstructure:"lastModified"`
	MsInfo       MsInfo              `mapstructure:"msInfo"`
	Rooms        map[string]Room     `mapstructure:"rooms"`
	Cats         map[string]Category `mapstructure:"cats"`
	Controls     map[string]Control  `mapstructure:"controls"`
}

// MsInfo describes the Miniserver itself.
type MsInfo struct {
	SerialNr     string `mapstructure:"serialNr"`
	MsName       string `mapstructure:"msName"`
	ProjectName  string `mapstructure:"projectName"`
	LocalURL     string `mapstructure:"localUrl"`
	RemoteURL    string `mapstructure:"remoteUrl"`
	Location     string `mapstructure:"location"`
	LanguageCode string `mapstructure:"languageCode"`
}

type Room struct {
	UUID string `mapstructure:"uuid"`
	Name string `mapstructure:"name"`
}

type Category struct {
	UUID string `mapstructure:"uuid"`
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// Control is a block of the Miniserver configuration. UUIDAction is the id
// accepted by the control operations of Client.
type Control struct {
	Name        string             `mapstructure:"name"`
	Type        string             `mapstructure:"type"`
	UUIDAction  string             `mapstructure:"uuidAction"`
	Room        string             `mapstructure:"room"`
	Cat         string             `mapstructure:"cat"`
	States      map[string]any     `mapstructure:"states"`
	SubControls map[string]Control `mapstructure:"subControls"`
}

// DecodeStructure converts a decoded LoxAPP3.json document into a Structure.
func DecodeStructure(raw map[string]any) (*Structure, error) {
	var s Structure
	if err := decodeWeak(raw, &s); err != nil {
		return nil, fmt.Errorf("decode structure file: %w", err)
	}
	return &s, nil
}

// SortedControls returns the top-level controls ordered by name, then by
// action UUID.
func (s *Structure) SortedControls() []Control {
	controls := make([]Control, 0, len(s.Controls))
	for _, c := range s.Controls {
		controls = append(controls, c)
	}
	sort.Slice(controls, func(i, j int) bool {
		if controls[i].Name != controls[j].Name {
			return controls[i].Name < controls[j].Name
		}
		return controls[i].UUIDAction < controls[j].UUIDAction
	})
	return controls
}

// RoomName returns the name of the room with the given UUID, or an empty
// string if it is unknown.
func (s *Structure) RoomName(uuid string) string {
	return s.Rooms[uuid].Name
}

// CategoryName returns the name of the category with the given UUID, or an
// empty string if it is unknown.
func (s *Structure) CategoryName(uuid string) string {
	return s.Cats[uuid].Name
}
