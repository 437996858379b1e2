// Package writers turns pipeline results into files and streams.
//
// Design:
//   • Writers own all presentation knowledge (TSV layout, number formatting hooks).
//   • Stages stay orchestration-only and hand writers plain labels and values.
//   • Outputs are written atomically so a crashed run never leaves a truncated matrix.
package writers
