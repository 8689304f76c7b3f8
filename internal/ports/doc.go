// Package ports defines the interfaces (ports) that connect the protocol
// loops to infrastructure adapters.
//
// Ports are the boundaries between the application core and the hardware or
// network around it. They state what the loops need without specifying how
// those needs are fulfilled.
//
// # Port Interfaces
//
//   - [SerialLink]: blocking writes and non-blocking reads on the byte link
//   - [TimeSource]: the network time authority
//   - [Network]: association of the Source with its network
//   - [RTCStore]: the Sink's real-time clock
//   - [StatusIndicator] and [SignalWriter]: the transfer-state light
//   - [Display] and [Sensor]: the Sink's surrounding I/O
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them for serial ports, NTP, Linux
// RTC and LED devices, terminals and zerolog.
package ports
