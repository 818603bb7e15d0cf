// Package sr reads and writes DICOM Structured Reports built on the TID-1500
// Imaging Measurement Report template.
//
// Reports are modelled as naturalized content trees (see ContentItem). Extract
// flattens the measurement groups of a report into Records, a Resolver attaches
// those records to images as image sets become available, and BuildReport goes
// the other way, turning viewer measurements into a new content tree.
package sr
