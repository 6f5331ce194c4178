package oled

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// SSD1306 renders text on a 128x64 I²C OLED.
type SSD1306 struct {
	dev *ssd1306.Dev
}

// NewSSD1306 opens the display on bus at its default address.
func NewSSD1306(bus i2c.Bus) (*SSD1306, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}

	return &SSD1306{dev: dev}, nil
}

// Render implements Renderer.
func (s *SSD1306) Render(_ context.Context, text string) error {
	bounds := s.dev.Bounds()
	img := image1bit.NewVerticalLSB(bounds)

	face := basicfont.Face7x13
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(image1bit.On),
		Face: face,
	}

	// Center the line on the screen.
	width := drawer.MeasureString(text).Ceil()
	drawer.Dot = fixed.P((bounds.Dx()-width)/2, (bounds.Dy()+face.Ascent)/2)
	drawer.DrawString(text)

	if err := s.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	return nil
}

// Close turns the display off.
func (s *SSD1306) Close() error {
	return s.dev.Halt()
}
