package loxone

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structureFixture = `{
  "lastModified": "2024-03-01 10:15:00",
  "msInfo": {
    "serialNr": "504F94A00000",
    "msName": "Home",
    "projectName": "House",
    "localUrl": "192.168.1.77",
    "remoteUrl": "",
    "location": "Bratislava",
    "languageCode": "SKY"
  },
  "rooms": {
    "room-1": {"uuid": "room-1", "name": "Kitchen", "type": 0}
  },
  "cats": {
    "cat-1": {"uuid": "cat-1", "name": "Lighting", "type": "lights"}
  },
  "controls": {
    "ctl-b": {
      "name": "Pendant",
      "type": "Switch",
      "uuidAction": "ctl-b",
      "room": "room-1",
      "cat": "cat-1",
      "states": {"active": "ctl-b-active"}
    },
    "ctl-a": {
      "name": "Blinds",
      "type": "Jalousie",
      "uuidAction": "ctl-a",
      "room": "room-1",
      "cat": "cat-1",
      "states": {"up": "s1", "down": "s2"},
      "subControls": {
        "ctl-a/sub": {"name": "Auto", "type": "Switch", "uuidAction": "ctl-a/sub"}
      }
    }
  }
}`

func TestDecodeStructure(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(structureFixture), &raw))

	s, err := DecodeStructure(raw)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01 10:15:00", s.LastModified)
	assert.Equal(t, "504F94A00000", s.MsInfo.SerialNr)
	assert.Equal(t, "Home", s.MsInfo.MsName)
	assert.Equal(t, "Kitchen", s.RoomName("room-1"))
	assert.Equal(t, "Lighting", s.CategoryName("cat-1"))
	assert.Equal(t, "", s.RoomName("nope"))

	require.Len(t, s.Controls, 2)
	blinds := s.Controls["ctl-a"]
	assert.Equal(t, "Jalousie", blinds.Type)
	assert.Equal(t, "s1", blinds.States["up"])
	require.Contains(t, blinds.SubControls, "ctl-a/sub")
	assert.Equal(t, "Auto", blinds.SubControls["ctl-a/sub"].Name)
}

func TestStructure_SortedControls(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(structureFixture), &raw))
	s, err := DecodeStructure(raw)
	require.NoError(t, err)

	controls := s.SortedControls()
	require.Len(t, controls, 2)
	assert.Equal(t, "Blinds", controls[0].Name)
	assert.Equal(t, "Pendant", controls[1].Name)
}

func TestDecodeStructure_WrongShape(t *testing.T) {
	_, err := DecodeStructure(map[string]any{"controls": "not a map"})
	assert.Error(t, err)
}
