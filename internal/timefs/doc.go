// Package timefs is a one-file service: /time reads back the server's
// current time. It exercises every layer of the protocol stack and doubles
// as a reference handler set.
package timefs
