package mesh

// Option configures a Batcher.
type Option func(*options)

type options struct {
	maxInstances int
	factories    map[ShapeKind]Factory
}

func defaultOptions() options {
	return options{
		factories: map[ShapeKind]Factory{
			Circle:  NewSDFMesh,
			Ellipse: NewSDFMesh,
			Rect:    NewSDFMesh,
		},
	}
}

// WithMaxInstances limits the members of one mesh. Values below 1 are
// treated as 1. Without it a mesh takes any number of members.
func WithMaxInstances(n int) Option {
	return func(o *options) {
		o.maxInstances = max(n, 1)
	}
}

// WithShapeFactory sets the mesh factory used for a shape kind. A nil
// factory removes the kind; its objects are then reported as unsupported.
func WithShapeFactory(kind ShapeKind, f Factory) Option {
	return func(o *options) {
		if f == nil {
			delete(o.factories, kind)
			return
		}
		o.factories[kind] = f
	}
}
