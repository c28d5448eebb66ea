// Package termview is a terminal front end for the layout engine: it hosts a
// viewport controller over a document's lines, draws the visible slice with
// tcell and turns keyboard, wheel and drag input into viewport signals.
package termview

import "github.com/gdamore/tcell/v2"

// ScreenDriver is the subset of tcell.Screen the view draws on.
type ScreenDriver interface {
	Init() error
	Fini()
	Size() (int, int)
	SetStyle(style tcell.Style)
	HideCursor()
	EnableMouse()
	Clear()
	Show()
	Sync()
	PollEvent() tcell.Event
	PostEvent(ev tcell.Event) error
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	GetContent(x, y int) (rune, []rune, tcell.Style, int)
}

// TcellDriver adapts a tcell.Screen to ScreenDriver.
type TcellDriver struct {
	screen tcell.Screen
}

// NewTcellDriver wraps screen.
func NewTcellDriver(screen tcell.Screen) *TcellDriver {
	return &TcellDriver{screen: screen}
}

func (d *TcellDriver) Init() error                { return d.screen.Init() }
func (d *TcellDriver) Fini()                      { d.screen.Fini() }
func (d *TcellDriver) Size() (int, int)           { return d.screen.Size() }
func (d *TcellDriver) SetStyle(style tcell.Style) { d.screen.SetStyle(style) }
func (d *TcellDriver) HideCursor()                { d.screen.HideCursor() }
func (d *TcellDriver) EnableMouse()               { d.screen.EnableMouse() }
func (d *TcellDriver) Clear()                     { d.screen.Clear() }
func (d *TcellDriver) Show()                      { d.screen.Show() }
func (d *TcellDriver) Sync()                      { d.screen.Sync() }
func (d *TcellDriver) PollEvent() tcell.Event     { return d.screen.PollEvent() }
func (d *TcellDriver) PostEvent(ev tcell.Event) error {
	return d.screen.PostEvent(ev)
}

func (d *TcellDriver) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	d.screen.SetContent(x, y, mainc, combc, style)
}

func (d *TcellDriver) GetContent(x, y int) (rune, []rune, tcell.Style, int) {
	return d.screen.GetContent(x, y)
}

// Underlying exposes the wrapped screen.
func (d *TcellDriver) Underlying() tcell.Screen { return d.screen }
