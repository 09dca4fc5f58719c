// Package scenegraph is the retained scene shared by all outputs of a
// compositor.
//
// A Scene is a tree of items. Each item has a local gg.Matrix relative to
// its parent, a size and a visibility flag; ItemToWindow composes the
// chain up to the root. Content items are RectItem (solid fills) and
// TextureItem (client buffers through a texture.Bridge). A Viewport places
// one output in scene coordinates; its local transform is derived from the
// output geometry during the polish pass.
//
// Rendering goes through a RenderControl:
//
//	ctrl.PolishItems() // once per cycle
//	for each output {
//		ctrl.BeginFrame(target, params)
//		ctrl.Sync()
//		ctrl.Render()
//		ctrl.EndFrame()
//	}
//
// SoftwareControl is the CPU implementation, rasterizing with gg.
//
// Scene changes are reported through Scene.OnChange. Listeners run inside
// the mutating call; they should schedule a render rather than render.
package scenegraph
