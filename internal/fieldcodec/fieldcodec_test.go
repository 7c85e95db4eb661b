package fieldcodec

import (
	"database/sql"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"watchlog/internal/models"
)

func TestEncodeNilValues(t *testing.T) {
	assert.False(t, Encode[[]string](nil).Valid, "nil slice should encode to NULL")
	assert.False(t, Encode[models.SeasonMap](nil).Valid, "nil map should encode to NULL")
}

func TestGenreRoundTrip(t *testing.T) {
	cases := [][]string{
		{},
		{"a", "b"},
		{"drama", "科幻", "comedy"},
	}
	for _, genres := range cases {
		decoded := Decode[[]string](Encode(genres))
		assert.Equal(t, genres, decoded)
	}
}

func TestSeasonMapRoundTrip(t *testing.T) {
	seasons := models.SeasonMap{
		1: {Episodes: []int{1, 2}},
		2: {Name: "Season Two", Episodes: []int{1}},
	}
	decoded := Decode[models.SeasonMap](Encode(seasons))
	assert.Equal(t, seasons, decoded)
}

func TestDecodeIsTotal(t *testing.T) {
	malformed := []string{
		"{not json",
		`{"1": `,
		"[1,2,]",
		`"wrong shape"`,
	}
	for _, text := range malformed {
		got := Decode[[]string](sql.NullString{String: text, Valid: true})
		assert.Nil(t, got, "malformed input %q should decode to nil", text)
	}

	assert.Nil(t, Decode[[]string](sql.NullString{}))
	assert.Nil(t, Decode[[]string](sql.NullString{String: "", Valid: true}))
}

func TestGenreRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("genre list round-trip preserves data", prop.ForAll(
		func(genres []string) bool {
			decoded := Decode[[]string](Encode(genres))
			if len(genres) != len(decoded) {
				return false
			}
			for i := range genres {
				if genres[i] != decoded[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
