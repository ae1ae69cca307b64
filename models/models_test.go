package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseGalleryImages(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty", strPtr(""), []string{}},
		{"malformed", strPtr("[not json"), []string{}},
		{"wrong shape", strPtr(`{"a":1}`), []string{}},
		{"valid", strPtr(`["https://cdn/a.webp"," ","https://cdn/b.webp"]`), []string{"https://cdn/a.webp", "https://cdn/b.webp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGalleryImages(tt.raw))
		})
	}
}

func TestEncodeGalleryImagesEmptyIsNull(t *testing.T) {
	assert.Nil(t, EncodeGalleryImages(nil))
	enc := EncodeGalleryImages([]string{"https://cdn/a.webp"})
	require.NotNil(t, enc)
	assert.Equal(t, []string{"https://cdn/a.webp"}, ParseGalleryImages(enc))
}

func TestEventMediaURLsDistinct(t *testing.T) {
	e := Event{
		FeaturedImage: strPtr("https://cdn/a.webp"),
		GalleryImages: []string{"https://cdn/b.webp", "https://cdn/a.webp", "", "https://cdn/b.webp"},
	}
	assert.Equal(t, []string{"https://cdn/a.webp", "https://cdn/b.webp"}, e.MediaURLs())
	assert.Empty(t, (&Event{}).MediaURLs())
}

func TestParticipantListAcceptsStringOrArray(t *testing.T) {
	var in struct {
		Additional ParticipantList `json:"additionalParticipants"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"additionalParticipants":[{"name":"Bob","email":"bob@example.com"}]}`), &in))
	assert.Equal(t, ParticipantList{{Name: "Bob", Email: "bob@example.com"}}, in.Additional)

	require.NoError(t, json.Unmarshal([]byte(`{"additionalParticipants":"[{\"name\":\"Amy\",\"email\":\"\"}]"}`), &in))
	assert.Equal(t, ParticipantList{{Name: "Amy"}}, in.Additional)

	require.NoError(t, json.Unmarshal([]byte(`{"additionalParticipants":""}`), &in))
	assert.Nil(t, in.Additional)

	assert.Error(t, json.Unmarshal([]byte(`{"additionalParticipants":"nope"}`), &in))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, EventTypeCompetition.Valid())
	assert.False(t, EventType("party").Valid())
	assert.True(t, LogoTypeJax.Valid())
	assert.False(t, LogoType("").Valid())
	assert.True(t, SignupStatusNoShow.Valid())
	assert.False(t, SignupStatus("maybe").Valid())
	assert.True(t, MoveDown.Valid())
	assert.False(t, MoveDirection("left").Valid())
}

func TestDefaultBanner(t *testing.T) {
	b := DefaultBanner()
	assert.Equal(t, DefaultBannerID, b.ID)
	assert.Equal(t, "Welcome to First Jax", b.Message)
	assert.False(t, b.IsActive)
	assert.True(t, b.ShowCloseButton)
}
