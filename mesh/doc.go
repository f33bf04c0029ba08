// Package mesh turns display objects into instanced draws.
//
// Objects are circles, ellipses and rectangles with fill, stroke and
// transform attributes. A Batcher walks them in paint order and appends
// each to the most recent mesh when the mesh's merge rule allows it,
// otherwise it starts a new mesh. Every mesh records a single instanced
// draw per frame.
//
// The SDF mesh draws all three shapes as signed distance fields on one
// quad per instance. An object whose stroke is dashed or translucent
// cannot share its fill instance: it is drawn by a fill mesh that leaves
// the stroke out, followed by a stroke-only mesh.
//
// Attribute changes are applied with Batcher.UpdateAttribute, which
// rewrites only the changed member's instance data. Changes that move an
// object to a different mesh rebuild the batch on the next Render.
//
//	b := mesh.NewBatcher(dev)
//	if err := b.Build(objects); err != nil {
//	    log.Print(err) // malformed objects are skipped
//	}
//	err := r.RenderFrame(ctx, b.Render)
package mesh
