package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Widget is implemented by every control a Panel can hold
type Widget interface {
	Update(p Pointer)
	Draw(screen *ebiten.Image)
	Height() float64
	setY(y float64)
}

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	labelHeight   = 15.0
)

// Section groups consecutive widgets under a header
type Section struct {
	Title      string
	StartIndex int
	EndIndex   int // exclusive
}

// Panel stacks widgets vertically in a scrollable box
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	ScrollOffset  float64

	widgets  []Widget
	labels   []string
	sections []Section

	BGColor     color.RGBA
	BorderColor color.RGBA
}

// NewPanel creates an empty panel
func NewPanel(title string, x, y, width, height float64) *Panel {
	return &Panel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection opens a section, closed by EndSection
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, Section{
		Title:      title,
		StartIndex: len(p.widgets),
		EndIndex:   len(p.widgets),
	})
}

// EndSection closes the current section
func (p *Panel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.widgets)
	}
}

// AddSlider adds a slider widget to the panel
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.add(label, s)
	return s
}

// AddCheckbox adds a checkbox widget to the panel
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.add(label, c)
	return c
}

// AddButton adds a full width button to the panel
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 20, label, onClick)
	p.add("", b)
	return b
}

func (p *Panel) add(label string, w Widget) {
	p.widgets = append(p.widgets, w)
	p.labels = append(p.labels, label)
	p.layout()
}

// Update scrolls the panel and forwards the pointer to every widget
func (p *Panel) Update(ptr Pointer) {
	if ptr.WheelDY != 0 && ptr.In(p.X, p.Y, p.Width, p.Height) {
		maxScroll := max(p.contentHeight()-p.Height+40, 0)
		p.ScrollOffset = min(max(p.ScrollOffset-ptr.WheelDY*20, 0), maxScroll)
	}
	p.layout()
	if !ptr.In(p.X, p.Y, p.Width, p.Height) {
		ptr.Pressed = false
	}
	for _, w := range p.widgets {
		w.Update(ptr)
	}
}

// layout places every widget below its label, honoring the scroll offset
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	for _, s := range p.sections {
		for ; next < s.StartIndex; next++ {
			y = p.place(next, y)
		}
		y += sectionHeight
		for ; next < s.EndIndex; next++ {
			y = p.place(next, y)
		}
	}
	for ; next < len(p.widgets); next++ {
		y = p.place(next, y)
	}
}

func (p *Panel) place(i int, y float64) float64 {
	w := p.widgets[i]
	w.setY(y + labelHeight)
	return y + w.Height()
}

// Draw renders the panel and all widgets
func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	for _, s := range p.sections {
		for ; next < s.StartIndex; next++ {
			y = p.drawWidget(screen, next, y)
		}
		if p.visible(y) {
			vector.FillRect(screen,
				float32(p.X+5), float32(y),
				float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, s.Title, int(p.X+10), int(y+5))
		}
		y += sectionHeight
		for ; next < s.EndIndex; next++ {
			y = p.drawWidget(screen, next, y)
		}
	}
	for ; next < len(p.widgets); next++ {
		y = p.drawWidget(screen, next, y)
	}
}

func (p *Panel) drawWidget(screen *ebiten.Image, i int, y float64) float64 {
	w := p.widgets[i]
	if p.visible(y) {
		if p.labels[i] != "" {
			ebitenutil.DebugPrintAt(screen, p.labels[i], int(p.X+10), int(y))
		}
		w.Draw(screen)
	}
	return y + w.Height()
}

func (p *Panel) visible(y float64) bool {
	return y >= p.Y && y <= p.Y+p.Height-sectionHeight
}

func (p *Panel) contentHeight() float64 {
	h := titleHeight + float64(len(p.sections))*sectionHeight
	for _, w := range p.widgets {
		h += w.Height()
	}
	return h
}
