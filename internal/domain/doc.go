// Package domain contains the core entities and value objects for timelink.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (serial ports, NTP, file system, logging) and
// contains only the time-distribution rules.
//
// # Entities
//
//   - [EpochValue]: seconds since the Unix epoch carried by one frame
//   - [LocalTime]: calendar fields derived from an epoch and an hour offset
//   - [TransferState]: the Sink's indicator state for one attempt
//   - [ConnectionState]: the Source's network association state
//   - [SynchronizationContext]: state shared by the Source and Sink loops
//
// # Design Principles
//
// Calendar fields are never edited independently: a LocalTime is always
// derived in one step from an EpochValue and an offset.
package domain
