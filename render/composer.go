// Package render lays out the presence grid: portrait thumbnails of every
// present member with their name drawn beneath, rows filled right-to-left to
// match Hebrew reading order, flattened to a JPEG for posting.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png" // portrait decoding
	"log/slog"
	"sort"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/plenumwatch/knesset-presence/bidi"
	"github.com/plenumwatch/knesset-presence/model"
	"github.com/plenumwatch/knesset-presence/telemetry"
)

// Layout constants. These match the channel's established visual format; the
// state file survives upgrades, the look should too.
const (
	canvasWidth = 800
	thumbSize   = 180
	spacing     = 20
	perRow      = 4
	fontSize    = 20

	rowHeight = thumbSize + fontSize + spacing
)

var backgroundColor = color.RGBA{R: 220, G: 240, B: 255, A: 255}

// Composer renders presence images.
type Composer struct {
	fetcher PortraitFetcher
	cache   *portraitCache
	face    font.Face
	log     *slog.Logger
}

// NewComposer builds a composer. The font at fontPath is loaded once; when it
// is missing the composer falls back to the builtin basic face and logs,
// since a render with ugly labels beats no render.
func NewComposer(fontPath, cacheDir string, fetcher PortraitFetcher) (*Composer, error) {
	cache, err := newPortraitCache(cacheDir)
	if err != nil {
		return nil, err
	}
	c := &Composer{
		fetcher: fetcher,
		cache:   cache,
		log:     slog.Default().With(slog.String("component", "render")),
	}
	face, err := gg.LoadFontFace(fontPath, fontSize)
	if err != nil {
		c.log.Warn("font load failed, using builtin face", slog.String("path", fontPath), slog.Any("err", err))
		face = basicfont.Face7x13
	}
	c.face = face
	return c, nil
}

// slotPosition returns the top-left pixel of the slot for the member at index
// in a sorted list of total members laid out over rows rows. Non-last rows
// run right-to-left (column 0 rightmost); the last row is centered when
// partial.
func slotPosition(index, total, rows int) (x, y int) {
	row := index / perRow
	col := index % perRow
	cell := canvasWidth / perRow
	y = row*rowHeight + spacing
	if row == rows-1 {
		inRow := total - row*perRow
		if inRow > perRow {
			inRow = perRow
		}
		offset := (perRow - inRow) * cell / 2
		x = col*cell + offset
	} else {
		x = (perRow - 1 - col) * cell
	}
	return x + spacing, y
}

// gridRows returns the row count for n members, minimum one so an empty
// member list still yields a valid canvas.
func gridRows(n int) int {
	rows := (n + perRow - 1) / perRow
	if rows == 0 {
		rows = 1
	}
	return rows
}

// Render produces the flattened JPEG for the given present members. Members
// whose portrait cannot be fetched are skipped; only canvas-level failures
// are errors.
func (c *Composer) Render(ctx context.Context, members []model.Member) ([]byte, error) {
	sorted := make([]model.Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bidi.NameLess(sorted[i].LastName, sorted[i].FirstName, sorted[j].LastName, sorted[j].FirstName)
	})

	rows := gridRows(len(sorted))
	dc := gg.NewContext(canvasWidth, rows*rowHeight)
	dc.SetColor(backgroundColor)
	dc.Clear()
	dc.SetFontFace(c.face)
	dc.SetRGB(0, 0, 0)

	for i, m := range sorted {
		data, err := c.portrait(ctx, m.PortraitURL)
		if err != nil {
			telemetry.PortraitFailures.Inc()
			c.log.Warn("portrait unavailable, skipping slot",
				slog.Int("member_id", m.ID), slog.String("lastname", m.LastName), slog.Any("err", err))
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			telemetry.PortraitFailures.Inc()
			c.log.Warn("portrait undecodable, skipping slot",
				slog.Int("member_id", m.ID), slog.Any("err", err))
			continue
		}

		thumb := image.NewRGBA(image.Rect(0, 0, thumbSize, thumbSize))
		xdraw.CatmullRom.Scale(thumb, thumb.Bounds(), img, img.Bounds(), xdraw.Over, nil)

		x, y := slotPosition(i, len(sorted), rows)
		dc.DrawImage(thumb, x, y)

		name := bidi.Reverse(m.LastName) + " " + bidi.Reverse(m.FirstName)
		dc.DrawStringAnchored(name, float64(x)+thumbSize/2, float64(y)+thumbSize+fontSize/2, 0.5, 0.5)
	}

	return flatten(dc.Image())
}

// flatten composites the RGBA canvas over a white backdrop and encodes JPEG.
func flatten(src image.Image) ([]byte, error) {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode presence image: %w", err)
	}
	return buf.Bytes(), nil
}
