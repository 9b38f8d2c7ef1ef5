package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"modelhaus/api/internal/catalog"
)

var shownCategories = []string{"chair", "sofa", "desk", "drawer"}

func TestBuildCardsFiltersCategories(t *testing.T) {
	records := []catalog.Record{
		{Category: "chair", Name: "木椅"},
		{Category: "lamp", Name: "吊燈"},
		{Category: "sofa", Name: "三人沙發"},
	}

	cards := catalog.BuildCards(records, shownCategories, "/web/3D_model_page.html")

	require.Len(t, cards, 2)
	require.Equal(t, "木椅", cards[0].Name)
	require.Equal(t, "三人沙發", cards[1].Name)
}

func TestCardPriceFallback(t *testing.T) {
	cards := catalog.BuildCards([]catalog.Record{
		{Category: "chair", Name: "木椅", PriceString: "4,200"},
		{Category: "chair", Name: "無價椅"},
	}, shownCategories, "/v.html")

	require.Equal(t, "NT$ 4,200", cards[0].PriceLabel)
	require.Equal(t, "NT$ 洽詢", cards[1].PriceLabel)
}

func TestCardSizeAndNameFallbacks(t *testing.T) {
	cards := catalog.BuildCards([]catalog.Record{
		{Category: "desk", SizeOptions: []string{"120寬 60深 75高", "特殊訂製"}},
	}, shownCategories, "/v.html")

	require.Equal(t, "未知產品", cards[0].Name)
	require.Equal(t, "尺寸：120寬 60深 75高, 特殊訂製", cards[0].SizeLabel)

	empty := catalog.BuildCards([]catalog.Record{{Category: "desk", Name: "桌"}}, shownCategories, "/v.html")
	require.Equal(t, "尺寸：未提供", empty[0].SizeLabel)
}

func TestCardViewerLinkCarriesDimensions(t *testing.T) {
	cards := catalog.BuildCards([]catalog.Record{
		{
			Category:    "chair",
			Name:        "木椅",
			SizeOptions: []string{"120寬 60高 40深"},
			ModelURL:    "http://host:5008/x.glb",
		},
	}, shownCategories, "../web/3D_model_page.html")

	require.Equal(t,
		"../web/3D_model_page.html?modelUrl=http%3A%2F%2Fhost%3A5008%2Fx.glb&targetWidthCm=120&targetHeightCm=60&targetDepthCm=40",
		cards[0].ViewerURL)
}

func TestCardViewerLinkOmitsUnparsedAxes(t *testing.T) {
	cards := catalog.BuildCards([]catalog.Record{
		{Category: "chair", Name: "椅", SizeOptions: []string{"特殊訂製"}, ModelURL: "/x.glb"},
	}, shownCategories, "/v.html")

	require.Equal(t, "/v.html?modelUrl=%2Fx.glb", cards[0].ViewerURL)
}

func TestGalleryPromote(t *testing.T) {
	g := catalog.NewGallery("木椅", []string{"a.jpg", "b.jpg", "c.jpg"})

	require.Equal(t, "a.jpg", g.Primary.Src)
	require.True(t, g.Thumbs[0].Active)

	g.Promote(2)

	require.Equal(t, "c.jpg", g.Primary.Src)
	require.Equal(t, "木椅", g.Primary.Alt)
	require.False(t, g.Thumbs[0].Active)
	require.False(t, g.Thumbs[1].Active)
	require.True(t, g.Thumbs[2].Active)
}

func TestGalleryPromoteOutOfRange(t *testing.T) {
	g := catalog.NewGallery("木椅", []string{"a.jpg"})
	g.Promote(5)
	require.Equal(t, "a.jpg", g.Primary.Src)
	require.True(t, g.Thumbs[0].Active)
}

func TestGalleryPlaceholder(t *testing.T) {
	g := catalog.NewGallery("木椅", nil)
	require.Equal(t, "placeholder.jpg", g.Primary.Src)
	require.Empty(t, g.Thumbs)
}

func TestScrollState(t *testing.T) {
	t.Run("no overflow hides both controls", func(t *testing.T) {
		s := catalog.ScrollState{ScrollWidth: 200, ClientWidth: 300, ThumbWidth: 50, Gap: 6}
		require.True(t, s.HidePrev())
		require.True(t, s.HideNext())
	})

	t.Run("at start only next shows", func(t *testing.T) {
		s := catalog.ScrollState{ScrollLeft: 0, ScrollWidth: 600, ClientWidth: 300, ThumbWidth: 50, Gap: 6}
		require.True(t, s.HidePrev())
		require.False(t, s.HideNext())
	})

	t.Run("at end only prev shows", func(t *testing.T) {
		s := catalog.ScrollState{ScrollLeft: 300, ScrollWidth: 600, ClientWidth: 300}
		require.False(t, s.HidePrev())
		require.True(t, s.HideNext())
	})

	t.Run("step is two thumbnails with gaps", func(t *testing.T) {
		s := catalog.ScrollState{ThumbWidth: 50, Gap: 6}
		require.Equal(t, 112.0, s.Step())
	})
}
