package mesh

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/image/math/f32"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/gscene/css"
)

// ShapeKind identifies the geometry of an object.
type ShapeKind uint8

// Shape kinds. The SDF mesh encodes them in this order.
const (
	Circle ShapeKind = iota
	Ellipse
	Rect
)

func (k ShapeKind) String() string {
	switch k {
	case Circle:
		return "circle"
	case Ellipse:
		return "ellipse"
	case Rect:
		return "rect"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// Attr names an object attribute for partial updates.
type Attr string

// Attributes.
const (
	AttrR             Attr = "r"
	AttrRX            Attr = "rx"
	AttrRY            Attr = "ry"
	AttrWidth         Attr = "width"
	AttrHeight        Attr = "height"
	AttrRadius        Attr = "radius"
	AttrLineWidth     Attr = "lineWidth"
	AttrLineDash      Attr = "lineDash"
	AttrFill          Attr = "fill"
	AttrStroke        Attr = "stroke"
	AttrOpacity       Attr = "opacity"
	AttrFillOpacity   Attr = "fillOpacity"
	AttrStrokeOpacity Attr = "strokeOpacity"
	AttrTransform     Attr = "transform"
	AttrVisible       Attr = "visible"
	AttrZIndex        Attr = "zIndex"
)

// Paint is a fill or stroke color. A paint with None set draws nothing.
type Paint struct {
	Color f32.Vec4
	None  bool
}

// RGBA returns a paint of the given straight-alpha color.
func RGBA(r, g, b, a float32) Paint {
	return Paint{Color: f32.Vec4{r, g, b, a}}
}

// NoPaint is the "none" paint.
var NoPaint = Paint{None: true}

// Style holds the presentation attributes shared by every shape.
type Style struct {
	Fill          Paint
	Stroke        Paint
	LineWidth     float64
	LineDash      []float64
	Opacity       float64
	FillOpacity   float64
	StrokeOpacity float64

	// Transform maps the shape's local coordinates to the viewport.
	Transform matrix.Matrix

	Visible bool
}

// DefaultStyle returns a visible black fill without stroke.
func DefaultStyle() Style {
	return Style{
		Fill:          RGBA(0, 0, 0, 1),
		Stroke:        NoPaint,
		LineWidth:     1,
		Opacity:       1,
		FillOpacity:   1,
		StrokeOpacity: 1,
		Transform:     matrix.Identity,
		Visible:       true,
	}
}

func (s *Style) hasStroke() bool { return !s.Stroke.None }

// hasLineDash reports a dash pattern with no zero entries.
func (s *Style) hasLineDash() bool {
	if len(s.LineDash) == 0 {
		return false
	}
	return !slices.Contains(s.LineDash, 0)
}

// needDrawStrokeSeparately reports whether the stroke cannot be drawn in
// the same instance as the fill: it is dashed or translucent.
func needDrawStrokeSeparately(s *Style) bool {
	return s.hasStroke() && s.LineWidth > 0 && (s.hasLineDash() || s.StrokeOpacity < 1)
}

// shouldOmitStroke reports whether the fill instance must leave the stroke
// out.
func shouldOmitStroke(s *Style) bool {
	return !s.hasStroke() || s.hasLineDash() || s.StrokeOpacity < 1
}

// CircleAttrs are the geometric attributes of a circle centered at the
// local origin.
type CircleAttrs struct {
	R float64
}

// EllipseAttrs are the geometric attributes of an ellipse centered at the
// local origin.
type EllipseAttrs struct {
	RX, RY float64
}

// RectAttrs are the geometric attributes of a rectangle whose top-left
// corner is the local origin. Radius rounds the corners.
type RectAttrs struct {
	Width, Height float64
	Radius        float64
}

// Object is a display object drawn by a mesh. Only the attribute struct
// matching Kind is used.
type Object struct {
	ID     uint64
	Kind   ShapeKind
	Style  Style
	ZIndex float64

	Circle  CircleAttrs
	Ellipse EllipseAttrs
	Rect    RectAttrs
}

// NewCircle returns a circle of radius r with the default style.
func NewCircle(id uint64, r float64) *Object {
	return &Object{ID: id, Kind: Circle, Style: DefaultStyle(), Circle: CircleAttrs{R: r}}
}

// NewEllipse returns an ellipse with the default style.
func NewEllipse(id uint64, rx, ry float64) *Object {
	return &Object{ID: id, Kind: Ellipse, Style: DefaultStyle(), Ellipse: EllipseAttrs{RX: rx, RY: ry}}
}

// NewRect returns a rectangle with the default style.
func NewRect(id uint64, width, height float64) *Object {
	return &Object{ID: id, Kind: Rect, Style: DefaultStyle(), Rect: RectAttrs{Width: width, Height: height}}
}

// SetLength resolves a CSS length and assigns it to a geometric
// attribute. Percentages resolve against ctx.PercentBasis.
func (o *Object) SetLength(attr Attr, v css.Value, ctx css.ResolveContext) error {
	px, err := css.ResolveLength(v, ctx)
	if err != nil {
		return &ObjectError{ID: o.ID, Kind: o.Kind, Attr: attr, Err: err}
	}
	var dst *float64
	switch {
	case attr == AttrLineWidth:
		dst = &o.Style.LineWidth
	case attr == AttrR && o.Kind == Circle:
		dst = &o.Circle.R
	case attr == AttrRX && o.Kind == Ellipse:
		dst = &o.Ellipse.RX
	case attr == AttrRY && o.Kind == Ellipse:
		dst = &o.Ellipse.RY
	case attr == AttrWidth && o.Kind == Rect:
		dst = &o.Rect.Width
	case attr == AttrHeight && o.Kind == Rect:
		dst = &o.Rect.Height
	case attr == AttrRadius && o.Kind == Rect:
		dst = &o.Rect.Radius
	default:
		return &ObjectError{ID: o.ID, Kind: o.Kind, Attr: attr, Err: fmt.Errorf("%w: not a length of a %s", ErrInvalidAttribute, o.Kind)}
	}
	*dst = px
	return nil
}

// HalfSize returns half the extent of the shape's box, without stroke.
func (o *Object) HalfSize() (float64, float64) {
	switch o.Kind {
	case Circle:
		return o.Circle.R, o.Circle.R
	case Ellipse:
		return o.Ellipse.RX, o.Ellipse.RY
	case Rect:
		return o.Rect.Width / 2, o.Rect.Height / 2
	}
	return 0, 0
}

// cornerRadius returns the corner radius, zero for shapes without one.
func (o *Object) cornerRadius() float64 {
	if o.Kind == Rect {
		return o.Rect.Radius
	}
	return 0
}

// Model returns the transform from the shape's centered unit box to the
// viewport.
func (o *Object) Model() matrix.Matrix {
	if o.Kind == Rect {
		return matrix.Translate(o.Rect.Width/2, o.Rect.Height/2).Mul(o.Style.Transform)
	}
	return o.Style.Transform
}

// Bounds returns the viewport-space bounding box including the stroke.
func (o *Object) Bounds() rect.Rect {
	hw, hh := o.HalfSize()
	if o.Style.hasStroke() {
		hw += o.Style.LineWidth / 2
		hh += o.Style.LineWidth / 2
	}
	m := o.Model()
	b := rect.Rect{LLx: math.Inf(1), LLy: math.Inf(1), URx: math.Inf(-1), URy: math.Inf(-1)}
	for _, c := range [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		x := m[0]*c[0] + m[2]*c[1] + m[4]
		y := m[1]*c[0] + m[3]*c[1] + m[5]
		b.LLx, b.URx = min(b.LLx, x), max(b.URx, x)
		b.LLy, b.URy = min(b.LLy, y), max(b.URy, y)
	}
	return b
}

func badLength(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

type attrValue struct {
	attr Attr
	v    float64
}

// lengths returns the geometric attributes that must be finite and
// non-negative.
func (o *Object) lengths() []attrValue {
	var out []attrValue
	switch o.Kind {
	case Circle:
		out = append(out, attrValue{AttrR, o.Circle.R})
	case Ellipse:
		out = append(out, attrValue{AttrRX, o.Ellipse.RX}, attrValue{AttrRY, o.Ellipse.RY})
	case Rect:
		out = append(out,
			attrValue{AttrWidth, o.Rect.Width},
			attrValue{AttrHeight, o.Rect.Height},
			attrValue{AttrRadius, o.Rect.Radius})
	}
	out = append(out, attrValue{AttrLineWidth, o.Style.LineWidth})
	for _, d := range o.Style.LineDash {
		out = append(out, attrValue{AttrLineDash, d})
	}
	return out
}

// Validate reports the first malformed attribute as an *ObjectError.
func (o *Object) Validate() error {
	if o.Kind > Rect {
		return &ObjectError{ID: o.ID, Kind: o.Kind, Err: ErrUnsupportedShape}
	}
	fail := func(attr Attr, v any) error {
		return &ObjectError{ID: o.ID, Kind: o.Kind, Attr: attr, Err: fmt.Errorf("%w: %v", ErrInvalidAttribute, v)}
	}
	for _, l := range o.lengths() {
		if badLength(l.v) {
			return fail(l.attr, l.v)
		}
	}
	opacities := []attrValue{
		{AttrOpacity, o.Style.Opacity},
		{AttrFillOpacity, o.Style.FillOpacity},
		{AttrStrokeOpacity, o.Style.StrokeOpacity},
	}
	for _, p := range opacities {
		if math.IsNaN(p.v) {
			return fail(p.attr, p.v)
		}
	}
	for _, v := range o.Style.Transform {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail(AttrTransform, o.Style.Transform)
		}
	}
	return nil
}
