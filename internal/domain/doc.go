// Package domain defines the core business entities and errors.
//
// The central entity is Media: one submitted source URL tracked through
// the download → transcribe → summarize pipeline by a persisted status.
// TranscriptSegment and Summary are the pipeline's durable outputs,
// always owned by exactly one Media record.
package domain
