// Package services implements the driving port interfaces.
// Services contain the pdfqa pipeline logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion runs extract, chunk, hash, cache lookup and, on a miss,
// embed and store. Questions run retrieve, assemble context and
// generate. Pipeline state lives in an explicit domain.Session.
package services
