package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Hoa Cưới":                 "hoa-cuoi",
		"  hoa cuoi  ":             "hoa-cuoi",
		"HOA CƯỚI":                 "hoa-cuoi",
		"Quận 1":                   "quan-1",
		"Đồng Nai":                 "dong-nai",
		"Lẵng hoa -- Khai trương!": "lang-hoa-khai-truong",
		"":                         "",
		"***":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "input %q", in)
	}
}

func TestSlugIsIdempotent(t *testing.T) {
	for _, in := range []string{"Bó Hoa Tươi", "hoa-sinh-nhat", "Giỏ hoa 2024"} {
		once := Slug(in)
		assert.Equal(t, once, Slug(once))
	}
}

func TestSlugKeepsNonLatinLetters(t *testing.T) {
	assert.Equal(t, "花束-tet", Slug("花束 Tết"))
	assert.Equal(t, "букет-роз", Slug("Букет  роз"))
	assert.Equal(t, "bo-hoa", Slug("Bộ hoa"), "Vietnamese marks still fold")
}
