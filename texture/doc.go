// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texture adapts client buffers for sampling by the scene graph.
//
// A Bridge wraps either a GPU texture (GPUBuffer) or CPU pixels
// (ImageBuffer) and exposes both through one handle:
//
//	b := texture.New()
//	if err := b.Bind(texture.NewImageBuffer(img, false)); err != nil {
//	    return err
//	}
//	item := scenegraph.NewTextureItem(b)
//
// The bridge only borrows buffers. Destroying them stays with the client.
package texture
