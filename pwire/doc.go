// Package pwire defines the messages exchanged between a telemetry
// publisher and subscriber, and the framing used to carry them over a
// single TCP stream.
//
// Every frame on the wire is a 4-byte big-endian payload length
// followed by the payload itself. The payload begins with a one-byte
// message type.
package pwire
