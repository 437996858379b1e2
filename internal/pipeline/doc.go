// Package pipeline runs the whole job: discover inputs, sketch them, compare
// the sketches and emit the distance matrix.
//
// Stages run strictly in order. The only parallelism is inside the sketch
// stage's job runner; everything here is sequential.
//
// The external programs are injected as Tools so tests can swap in fakes.
package pipeline
