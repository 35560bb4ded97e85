// Package papershelf provides a local client for a personal PDF library
// backed by a semantic retrieval service. It reconciles documents confirmed
// by the backend, PDFs discovered in the local workspace, and uploads in
// flight into a single de-duplicated library view that survives restarts.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, http/, fs/, pdf/).
package papershelf
