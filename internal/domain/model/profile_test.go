package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("Owner")
	assert.True(t, ok)
	assert.Equal(t, RoleOwner, role)

	role, ok = ParseRole(" member ")
	assert.True(t, ok)
	assert.Equal(t, RoleMember, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestParseTier(t *testing.T) {
	tier, ok := ParseTier("PRO")
	assert.True(t, ok)
	assert.Equal(t, TierPro, tier)

	_, ok = ParseTier("platinum")
	assert.False(t, ok)
}

func TestProfile_Name(t *testing.T) {
	var p *Profile
	assert.Empty(t, p.Name())

	name := "Ada"
	p = &Profile{DisplayName: &name}
	assert.Equal(t, "Ada", p.Name())

	assert.Empty(t, (&Profile{}).Name())
}

func TestProfileUpdate_Validate(t *testing.T) {
	empty := ProfileUpdate{}
	require.Error(t, empty.Validate())

	name := "  Ada Lovelace  "
	u := ProfileUpdate{DisplayName: &name}
	require.NoError(t, u.Validate())
	assert.Equal(t, "Ada Lovelace", *u.DisplayName)

	long := strings.Repeat("a", 81)
	u = ProfileUpdate{DisplayName: &long}
	require.Error(t, u.Validate())

	avatar := "https://cdn.example.com/a.png"
	u = ProfileUpdate{AvatarURL: &avatar}
	require.NoError(t, u.Validate())

	relative := "/a.png"
	u = ProfileUpdate{AvatarURL: &relative}
	require.Error(t, u.Validate())

	ftp := "ftp://example.com/a.png"
	u = ProfileUpdate{AvatarURL: &ftp}
	require.Error(t, u.Validate())
}
