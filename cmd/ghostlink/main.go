// Ghostlink is an encrypted point-to-point chat over a reliable byte stream.
//
// One peer runs `ghostlink listen`, the other `ghostlink dial`. Both sides
// share a symmetric key (see `ghostlink keygen`) out-of-band; every message
// travels as a hash-framed, Fernet-encrypted packet. The initiator
// reconnects forever on failure; the listener serves one peer at a time.
package main

func main() {
	Execute()
}
