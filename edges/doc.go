// Package edges implements the fixed edge-detection filter: grayscale
// conversion, a 3x3 box blur and Canny with thresholds 50/150 and a 3x3
// Sobel aperture.
//
// The package follows the same layering as the rest of the service:
//
//   - Atoms: Gray, Blur, Canny (pure functions over mat.Mat)
//   - Molecule: Detect, the fixed composition of the atoms
//   - Organism: Filter, the backend-selectable entry point used by the bridge
//
// Parameters are constants. There is deliberately no way to tune them.
//
// The default build uses the native Go implementation. Building with
// -tags gocv adds an OpenCV backend through gocv.io/x/gocv that applies
// the same constants.
package edges
