package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	canvasWidth  = 800
	canvasHeight = 300
)

// Background choices. Custom resolves through Options.CustomSource; the rest
// map to built-in sources.
const (
	BackgroundDefault  = "default"
	BackgroundForest   = "forest"
	BackgroundCity     = "city"
	BackgroundAbstract = "abstract"
	BackgroundCustom   = "custom"
)

// DefaultSources maps the built-in background names to their image sources.
func DefaultSources() map[string]string {
	return map[string]string{
		BackgroundDefault:  "https://i.imgur.com/qNxO3gR.png",
		BackgroundForest:   "https://i.imgur.com/2JXI37J.jpg",
		BackgroundCity:     "https://i.imgur.com/3Dy7tJv.jpg",
		BackgroundAbstract: "https://i.imgur.com/0udsGMg.jpg",
	}
}

// Options selects the background and text color for one render.
type Options struct {
	Background   string
	CustomSource string
	TextColor    string
}

type Config struct {
	Log     *zap.Logger
	Sources map[string]string
	Client  *http.Client
}

// Renderer composites welcome images. Identical inputs against reachable
// sources produce identical output, so the dashboard preview and the live
// join path stay in lockstep.
type Renderer struct {
	mu      sync.Mutex
	log     *zap.Logger
	sources map[string]string
	client  *http.Client

	faceLarge  font.Face
	faceMedium font.Face
	faceSmall  font.Face
}

func NewRenderer(c *Config) (*Renderer, error) {
	r := &Renderer{
		log:     c.Log,
		sources: c.Sources,
		client:  c.Client,
	}
	if r.sources == nil {
		r.sources = DefaultSources()
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: time.Second * 10}
	}

	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}

	if r.faceLarge, err = opentype.NewFace(bold, &opentype.FaceOptions{Size: 60, DPI: 72, Hinting: font.HintingFull}); err != nil {
		return nil, err
	}
	if r.faceMedium, err = opentype.NewFace(bold, &opentype.FaceOptions{Size: 40, DPI: 72, Hinting: font.HintingFull}); err != nil {
		return nil, err
	}
	if r.faceSmall, err = opentype.NewFace(regular, &opentype.FaceOptions{Size: 30, DPI: 72, Hinting: font.HintingFull}); err != nil {
		return nil, err
	}

	return r, nil
}

// Render produces an 800x300 PNG welcoming a user. A bad background choice or
// an unreachable custom source falls back to the default background; the only
// error case is the default source itself being unreachable.
func (r *Renderer) Render(username, serverName string, opts Options) ([]byte, error) {
	bg, err := r.background(opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	canvas := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	xdraw.BiLinear.Scale(canvas, canvas.Bounds(), bg, bg.Bounds(), xdraw.Src, nil)

	// 60% black overlay for text legibility
	overlay := image.NewUniform(color.NRGBA{A: 153})
	draw.Draw(canvas, canvas.Bounds(), overlay, image.Point{}, draw.Over)

	textColor := ParseHexColor(opts.TextColor)
	r.drawCentered(canvas, r.faceLarge, "WELCOME", 120, textColor)
	r.drawCentered(canvas, r.faceMedium, username, 180, textColor)
	r.drawCentered(canvas, r.faceSmall, fmt.Sprintf("to %v", serverName), 230, textColor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) background(opts Options) (image.Image, error) {
	if opts.Background == BackgroundCustom && opts.CustomSource != "" {
		img, err := r.load(opts.CustomSource)
		if err == nil {
			return img, nil
		}
		r.log.Warn("failed to load custom background", zap.String("source", opts.CustomSource), zap.Error(err))
	} else if opts.Background != BackgroundCustom && opts.Background != BackgroundDefault {
		if src, ok := r.sources[opts.Background]; ok {
			img, err := r.load(src)
			if err == nil {
				return img, nil
			}
			r.log.Warn("failed to load background", zap.String("name", opts.Background), zap.Error(err))
		}
	}

	src, ok := r.sources[BackgroundDefault]
	if !ok {
		return nil, fmt.Errorf("no default background source configured")
	}
	img, err := r.load(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load default background: %w", err)
	}
	return img, nil
}

// load reads an image from an http(s) URL or a local file path.
func (r *Renderer) load(src string) (image.Image, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		res, err := r.client.Get(src)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %v", res.Status)
		}
		img, _, err := image.Decode(res.Body)
		return img, err
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func (r *Renderer) drawCentered(dst *image.RGBA, face font.Face, text string, baseline int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(canvasWidth/2) - width/2,
		Y: fixed.I(baseline),
	}
	d.DrawString(text)
}

// ParseHexColor parses a #RRGGBB string, returning white for anything it
// cannot make sense of.
func ParseHexColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.White
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.White
	}
	return color.NRGBA{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
		A: 0xFF,
	}
}
