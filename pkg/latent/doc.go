// Package latent implements the tensor math used by the patch engine.
//
// Latent tensors are dense float32 arrays in NCHW layout (batch, channels,
// height, width), matching the shape of the activations a diffusion model
// exposes at its block boundaries. The package provides the numeric
// primitives the operation library composes:
//
//   - Resize: separable resampling with per-axis modes, from plain
//     nearest/bilinear/bicubic/area up to channel-vector interpolation
//     (slerp and friends)
//   - Blend modes: named two-tensor blend functions (lerp, inject,
//     colorize, ...) used by slice and blend operations
//   - FFilter: frequency-domain filtering with named band-gain presets
//   - Antialias: separable gaussian smoothing
//   - AddNoise: gaussian noise injection
//   - HiddenMean: normalized per-batch channel-mean signal
//
// All functions either allocate a fresh tensor or mutate their receiver
// explicitly; there are no implicit views or shared buffers. Nothing in
// this package is goroutine-safe by itself, mirroring the engine's
// single-owner evaluation model.
package latent
